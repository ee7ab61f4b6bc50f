package form_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomeryapp/bloomery-admin/internal/domain"
	domainerrors "github.com/bloomeryapp/bloomery-admin/internal/errors"
	"github.com/bloomeryapp/bloomery-admin/internal/draft"
	"github.com/bloomeryapp/bloomery-admin/internal/form"
	"github.com/bloomeryapp/bloomery-admin/internal/media/images"
	"github.com/bloomeryapp/bloomery-admin/internal/store"
	"github.com/bloomeryapp/bloomery-admin/internal/submit"
)

type fakeSaver struct {
	mu     sync.Mutex
	result bool
	err    error
	calls  int
	last   submit.Payload
}

func (f *fakeSaver) Save(_ context.Context, p submit.Payload) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = p
	return f.result, f.err
}

func (f *fakeSaver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// blockingSaver holds its Save call open until released, so tests can
// observe the controller while a save is in flight.
type blockingSaver struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once

	mu     sync.Mutex
	calls  int
	ctxErr error
}

func newBlockingSaver() *blockingSaver {
	return &blockingSaver{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingSaver) Save(ctx context.Context, _ submit.Payload) (bool, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	b.once.Do(func() { close(b.started) })

	select {
	case <-ctx.Done():
		b.mu.Lock()
		b.ctxErr = ctx.Err()
		b.mu.Unlock()
		return false, ctx.Err()
	case <-b.release:
		return true, nil
	}
}

func (b *blockingSaver) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *blockingSaver) sawCancel() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctxErr
}

func testDeps(t *testing.T, saver *fakeSaver) form.Deps {
	t.Helper()
	registry := images.NewRegistry()
	return form.Deps{
		Ingestor:  images.NewIngestor(registry, images.DefaultLimits(), nil),
		Submitter: submit.New(saver, time.Second, time.Second, nil),
	}
}

func fastConfig() form.Config {
	return form.Config{
		DebounceInterval:  10 * time.Millisecond,
		DraftSaveInterval: 20 * time.Millisecond,
	}
}

func smallJPEG(t *testing.T) images.Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 200))
	for i := range img.Pix {
		img.Pix[i] = 0x7f
	}
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return images.Upload{Name: "bouquet.jpg", MIME: "image/jpeg", Data: buf.Bytes()}
}

func fillValidCreate(t *testing.T, c *form.Controller) {
	t.Helper()
	require.NoError(t, c.SetField(domain.FieldName, "Rose Bundle"))
	require.NoError(t, c.SetField(domain.FieldPrice, "150000"))
	require.NoError(t, c.SetField(domain.FieldSize, "Medium"))
	require.NoError(t, c.SetField(domain.FieldCollectionName, "Best Sellers"))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestController_SetField_ImmediateValidationForGatingFields(t *testing.T) {
	c := form.NewCreate(fastConfig(), testDeps(t, &fakeSaver{}))
	defer c.Close()

	require.NoError(t, c.SetField(domain.FieldName, "R"))

	snap := c.Snapshot()
	assert.Equal(t, "Name must be at least 2 characters", snap.Errors[domain.FieldName])

	require.NoError(t, c.SetField(domain.FieldName, "Rose Bundle"))
	snap = c.Snapshot()
	assert.NotContains(t, snap.Errors, domain.FieldName)
}

func TestController_SetField_DebouncedValidation(t *testing.T) {
	c := form.NewCreate(fastConfig(), testDeps(t, &fakeSaver{}))
	defer c.Close()

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}
	require.NoError(t, c.SetField(domain.FieldDescription, string(long)))

	// The error only appears after the debounce interval.
	assert.NotContains(t, c.Snapshot().Errors, domain.FieldDescription)
	waitFor(t, func() bool {
		_, ok := c.Snapshot().Errors[domain.FieldDescription]
		return ok
	})
}

func TestController_SetField_StaleDebouncedResultDiscarded(t *testing.T) {
	c := form.NewCreate(fastConfig(), testDeps(t, &fakeSaver{}))
	defer c.Close()

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}

	// Rapid second edit supersedes the first; only the latest (valid)
	// value may ever produce a validation result.
	require.NoError(t, c.SetField(domain.FieldDescription, string(long)))
	require.NoError(t, c.SetField(domain.FieldDescription, "short and fine"))

	time.Sleep(60 * time.Millisecond)
	assert.NotContains(t, c.Snapshot().Errors, domain.FieldDescription)
}

func TestController_NumericGarbageClampsToZero(t *testing.T) {
	c := form.NewCreate(fastConfig(), testDeps(t, &fakeSaver{}))
	defer c.Close()

	require.NoError(t, c.SetField(domain.FieldPrice, "not a number"))
	snap := c.Snapshot()
	assert.Zero(t, snap.Values.Price)
	// The clamp surfaces as a validation error on the zero, not a throw.
	assert.Equal(t, "Price must be greater than zero", snap.Errors[domain.FieldPrice])

	require.NoError(t, c.SetField(domain.FieldQuantity, "-7"))
	assert.Zero(t, c.Snapshot().Values.Quantity)
}

func TestController_ListMirrorSync(t *testing.T) {
	c := form.NewCreate(fastConfig(), testDeps(t, &fakeSaver{}))
	defer c.Close()

	require.NoError(t, c.SetField(domain.FieldOccasionsText, "Birthday, Anniversary\nGraduation"))
	snap := c.Snapshot()
	assert.Equal(t, []string{"Birthday", "Anniversary", "Graduation"}, snap.Values.Occasions)
}

func TestController_ListCapEnforcedAtMutation(t *testing.T) {
	saver := &fakeSaver{result: true}
	c := form.NewCreate(fastConfig(), testDeps(t, saver))
	defer c.Close()

	items := make([]string, 15)
	for i := range items {
		items[i] = fmt.Sprintf("occasion %d", i)
	}
	require.NoError(t, c.SetField(domain.FieldOccasionsText, strings.Join(items, ", ")))

	// The list is capped on the keystroke, not only at submit time.
	snap := c.Snapshot()
	assert.Len(t, snap.Values.Occasions, domain.MaxOccasions)

	// The over-cap mirror still blocks submit outright.
	fillValidCreate(t, c)
	require.NoError(t, c.StageImage(context.Background(), smallJPEG(t)))
	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Zero(t, saver.callCount())
}

func TestController_AddTag_CaseInsensitiveDuplicate(t *testing.T) {
	c := form.NewCreate(fastConfig(), testDeps(t, &fakeSaver{}))
	defer c.Close()

	require.NoError(t, c.AddTag("Rose"))

	err := c.AddTag("rose")
	require.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Equal(t, []string{"Rose"}, c.Snapshot().Values.Penanda)
}

func TestController_AddTag_CapClearsStagedInput(t *testing.T) {
	c := form.NewCreate(fastConfig(), testDeps(t, &fakeSaver{}))
	defer c.Close()

	tags := []string{"aa", "bb", "cc", "dd", "ee", "ff", "gg", "hh", "ii", "jj"}
	for _, tag := range tags {
		require.NoError(t, c.AddTag(tag))
	}

	require.NoError(t, c.SetField(domain.FieldNewPenanda, "kk"))
	err := c.AddTag("kk")
	require.ErrorIs(t, err, domainerrors.ErrValidation)

	snap := c.Snapshot()
	assert.Len(t, snap.Values.Penanda, 10)
	assert.Empty(t, snap.Values.NewPenandaInput)
	assert.NotEmpty(t, snap.Errors[domain.FieldNewPenanda])
}

func TestController_AddTag_FormatViolationKeepsInput(t *testing.T) {
	c := form.NewCreate(fastConfig(), testDeps(t, &fakeSaver{}))
	defer c.Close()

	require.NoError(t, c.SetField(domain.FieldNewPenanda, "a,b"))
	err := c.AddTag("a,b")
	require.ErrorIs(t, err, domainerrors.ErrValidation)

	snap := c.Snapshot()
	assert.Empty(t, snap.Values.Penanda)
	assert.Equal(t, "a,b", snap.Values.NewPenandaInput)
}

func TestController_RemoveTag(t *testing.T) {
	c := form.NewCreate(fastConfig(), testDeps(t, &fakeSaver{}))
	defer c.Close()

	require.NoError(t, c.AddTag("Fresh"))
	require.NoError(t, c.AddTag("Local"))
	require.NoError(t, c.RemoveTag("Fresh"))

	assert.Equal(t, []string{"Local"}, c.Snapshot().Values.Penanda)
}

func TestController_StageImage(t *testing.T) {
	c := form.NewCreate(fastConfig(), testDeps(t, &fakeSaver{}))
	defer c.Close()

	require.NoError(t, c.StageImage(context.Background(), smallJPEG(t)))

	snap := c.Snapshot()
	assert.True(t, snap.HasImage)
	assert.NotEmpty(t, snap.PreviewURL)
	require.NotNil(t, snap.Dimensions)
	assert.Equal(t, 320, snap.Dimensions.Width)
}

func TestController_StageImage_FailureKeepsPreviousAsset(t *testing.T) {
	c := form.NewCreate(fastConfig(), testDeps(t, &fakeSaver{}))
	defer c.Close()

	require.NoError(t, c.StageImage(context.Background(), smallJPEG(t)))
	previous := c.Snapshot().PreviewURL

	corrupt := images.Upload{Name: "broken.jpg", MIME: "image/jpeg", Data: []byte("not a jpeg")}
	err := c.StageImage(context.Background(), corrupt)
	require.ErrorIs(t, err, domainerrors.ErrDecodeFailed)

	snap := c.Snapshot()
	assert.True(t, snap.HasImage)
	assert.Equal(t, previous, snap.PreviewURL)
	assert.NotEmpty(t, snap.Errors[domain.FieldImage])
}

func TestController_StageImage_ReplacementRevokesPreviousHandle(t *testing.T) {
	registry := images.NewRegistry()
	deps := form.Deps{
		Ingestor:  images.NewIngestor(registry, images.DefaultLimits(), nil),
		Submitter: submit.New(&fakeSaver{result: true}, time.Second, time.Second, nil),
	}
	c := form.NewCreate(fastConfig(), deps)
	defer c.Close()

	require.NoError(t, c.StageImage(context.Background(), smallJPEG(t)))
	require.Equal(t, 1, registry.Len())

	require.NoError(t, c.StageImage(context.Background(), smallJPEG(t)))
	assert.Equal(t, 1, registry.Len())
}

func TestController_Submit_ValidationFailureFocusesFirstInvalid(t *testing.T) {
	var focused string
	deps := testDeps(t, &fakeSaver{result: true})
	deps.Focus = func(field string) { focused = field }

	c := form.NewCreate(fastConfig(), deps)
	defer c.Close()

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Equal(t, domain.FieldName, focused)

	// Required fields are marked touched so their errors render.
	snap := c.Snapshot()
	assert.Contains(t, snap.Touched, domain.FieldName)
	assert.Contains(t, snap.Errors, domain.FieldName)
}

func TestController_Submit_CreateRequiresImage(t *testing.T) {
	c := form.NewCreate(fastConfig(), testDeps(t, &fakeSaver{result: true}))
	defer c.Close()

	fillValidCreate(t, c)

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.NotEmpty(t, c.Snapshot().Errors[domain.FieldImage])
}

func TestController_Submit_CreateSuccessResetsEverything(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "form-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	db, err := store.New(filepath.Join(tmpDir, "catalog.db"), nil)
	require.NoError(t, err)
	defer db.Close()
	drafts := draft.New(db, nil, draft.DefaultRetention)

	saver := &fakeSaver{result: true}
	registry := images.NewRegistry()
	deps := form.Deps{
		Ingestor:  images.NewIngestor(registry, images.DefaultLimits(), nil),
		Drafts:    drafts,
		Submitter: submit.New(saver, time.Second, time.Second, nil),
	}

	c := form.NewCreate(fastConfig(), deps)
	defer c.Close()

	fillValidCreate(t, c)
	require.NoError(t, c.StageImage(context.Background(), smallJPEG(t)))

	// Let the autosave loop persist a draft before the submit clears it.
	waitFor(t, drafts.Exists)
	require.True(t, c.Snapshot().CanSave)

	notice, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, notice)
	assert.Equal(t, form.NoticeSuccess, notice.Kind)

	snap := c.Snapshot()
	assert.Empty(t, snap.Values.Name)
	assert.False(t, snap.HasImage)
	assert.False(t, snap.Submitting)
	assert.False(t, drafts.Exists())
	assert.Zero(t, registry.Len())
	assert.Equal(t, 1, saver.callCount())
	assert.Equal(t, "Rose Bundle", saver.last.Fields["name"])
}

func TestController_Submit_EditRecoverableFailureKeepsChanges(t *testing.T) {
	saver := &fakeSaver{result: false}
	c := form.NewEdit(fastConfig(), testDeps(t, saver), &domain.Product{
		ID:     "prod-1",
		Name:   "Rose Bundle",
		Price:  150000,
		Size:   "Medium",
		Status: domain.StatusReady,
	})
	defer c.Close()

	require.NoError(t, c.SetField(domain.FieldDescription, "Lovely"))

	snap := c.Snapshot()
	require.True(t, snap.IsDirty)
	require.True(t, snap.CanSave)

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, domainerrors.ErrSubmitFailed)

	snap = c.Snapshot()
	assert.Equal(t, "Lovely", snap.Values.Description)
	assert.True(t, snap.IsDirty)
	assert.False(t, snap.Submitting)

	// Immediate retry with a now-working saver succeeds.
	saver.mu.Lock()
	saver.result = true
	saver.mu.Unlock()

	notice, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, form.NoticeSuccess, notice.Kind)
	assert.False(t, c.Snapshot().IsDirty)
}

func TestController_Submit_NetworkErrorRestoresRetryableState(t *testing.T) {
	saver := &fakeSaver{err: errors.New("connection refused")}
	c := form.NewEdit(fastConfig(), testDeps(t, saver), &domain.Product{
		ID: "prod-1", Name: "Rose Bundle", Price: 10, Size: "Small", Status: domain.StatusReady,
	})
	defer c.Close()

	require.NoError(t, c.SetField(domain.FieldDescription, "Lovely"))

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, domainerrors.ErrSubmitFailed)

	snap := c.Snapshot()
	assert.False(t, snap.Submitting)
	require.NotNil(t, snap.Notice)
	assert.Equal(t, form.NoticeError, snap.Notice.Kind)
}

func TestController_EditWithoutImageOmitsImagePart(t *testing.T) {
	saver := &fakeSaver{result: true}
	c := form.NewEdit(fastConfig(), testDeps(t, saver), &domain.Product{
		ID: "prod-1", Name: "Rose Bundle", Price: 10, Size: "Small", Status: domain.StatusReady,
	})
	defer c.Close()

	require.NoError(t, c.SetField(domain.FieldDescription, "Lovely"))

	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Nil(t, saver.last.Image)
	assert.Equal(t, "prod-1", saver.last.Fields["id"])
}

func TestController_Submit_SecondSubmitWhileInFlightIsBusy(t *testing.T) {
	saver := newBlockingSaver()
	deps := form.Deps{
		Ingestor:  images.NewIngestor(images.NewRegistry(), images.DefaultLimits(), nil),
		Submitter: submit.New(saver, time.Second, time.Second, nil),
	}
	c := form.NewEdit(fastConfig(), deps, &domain.Product{
		ID: "prod-1", Name: "Rose Bundle", Price: 10, Size: "Small", Status: domain.StatusReady,
	})
	defer c.Close()

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-saver.started

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, domainerrors.ErrBusy)

	close(saver.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, saver.callCount())
}

func TestController_CloseAbandonsInFlightSubmit(t *testing.T) {
	saver := newBlockingSaver()
	deps := form.Deps{
		Ingestor:  images.NewIngestor(images.NewRegistry(), images.DefaultLimits(), nil),
		Submitter: submit.New(saver, time.Minute, time.Minute, nil),
	}
	c := form.NewEdit(fastConfig(), deps, &domain.Product{
		ID: "prod-1", Name: "Rose Bundle", Price: 10, Size: "Small", Status: domain.StatusReady,
	})

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-saver.started

	// Teardown aborts the in-flight save instead of letting it land.
	c.Close()

	require.ErrorIs(t, <-done, domainerrors.ErrSessionClosed)
	assert.ErrorIs(t, saver.sawCancel(), context.Canceled)
	assert.Equal(t, 1, saver.callCount())
}

func TestController_DraftSeedsCreateSession(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "form-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	db, err := store.New(filepath.Join(tmpDir, "catalog.db"), nil)
	require.NoError(t, err)
	defer db.Close()
	drafts := draft.New(db, nil, draft.DefaultRetention)

	seed := domain.Defaults()
	seed.Name = "Winter Whites"
	seed.Price = 85000
	drafts.Save(seed)

	deps := testDeps(t, &fakeSaver{})
	deps.Drafts = drafts
	c := form.NewCreate(fastConfig(), deps)
	defer c.Close()

	snap := c.Snapshot()
	assert.Equal(t, "Winter Whites", snap.Values.Name)
	assert.InDelta(t, 85000.0, snap.Values.Price, 0.001)
}

func TestController_CloseReleasesHandleAndRejectsUse(t *testing.T) {
	registry := images.NewRegistry()
	deps := form.Deps{
		Ingestor:  images.NewIngestor(registry, images.DefaultLimits(), nil),
		Submitter: submit.New(&fakeSaver{result: true}, time.Second, time.Second, nil),
	}
	c := form.NewCreate(fastConfig(), deps)

	require.NoError(t, c.StageImage(context.Background(), smallJPEG(t)))
	require.Equal(t, 1, registry.Len())

	c.Close()
	assert.Zero(t, registry.Len())

	require.ErrorIs(t, c.SetField(domain.FieldName, "x"), domainerrors.ErrSessionClosed)
	require.ErrorIs(t, c.AddTag("xx"), domainerrors.ErrSessionClosed)
	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, domainerrors.ErrSessionClosed)

	// Closing again is safe.
	c.Close()
}
