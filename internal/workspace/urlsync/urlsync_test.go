package urlsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/registry"
	"atelier/internal/workspace/models"
	"atelier/internal/workspace/stack"
)

type fakeRouter struct {
	path     string
	pushed   []string
	replaced []string
	page     int
	hasPage  bool
}

func (f *fakeRouter) CurrentPath() string { return f.path }

func (f *fakeRouter) Push(path string) {
	f.path = path
	f.pushed = append(f.pushed, path)
}

func (f *fakeRouter) Replace(path string) {
	f.path = path
	f.replaced = append(f.replaced, path)
}

func (f *fakeRouter) PageParam() (int, bool) { return f.page, f.hasPage }

func (f *fakeRouter) SetPageParam(page int) {
	f.page = page
	f.hasPage = true
}

const registryConfig = `{
	"tools": [
		{"id": "free-generation", "titleKey": "tools.freeGeneration", "creditCost": 1},
		{"id": "photo-restoration", "titleKey": "tools.photoRestoration", "creditCost": 1}
	]
}`

func loadedRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.LoadBytes(context.Background(), []byte(registryConfig)))
	return reg
}

func TestSyncResolvesPaths(t *testing.T) {
	tests := []struct {
		name string
		path string
		want models.ViewID
	}{
		{name: "root is overview", path: "/", want: models.ViewOverview},
		{name: "empty is overview", path: "", want: models.ViewOverview},
		{name: "bare tool prefix is generators", path: "/tool", want: models.ViewGenerators},
		{name: "registered tool", path: "/tool/free-generation", want: models.ViewFreeGeneration},
		{name: "system view", path: "/gallery", want: models.ViewGallery},
		{name: "settings", path: "/settings", want: models.ViewSettings},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := &fakeRouter{path: tc.path}
			st := stack.New()
			s := New(st, loadedRegistry(t), router)

			s.Sync(context.Background())

			assert.Equal(t, tc.want, st.Current().View)
			assert.Empty(t, router.replaced)
		})
	}
}

func TestSyncUnknownPathRedirectsToOverview(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "unknown system path", path: "/nonsense"},
		{name: "unregistered tool", path: "/tool/avatar-creator"},
		{name: "tool id that is not a view", path: "/tool/made-up"},
		{name: "system view at tool path", path: "/tool/gallery"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := &fakeRouter{path: tc.path}
			st := stack.New()
			require.NoError(t, st.NavigateTo(models.ViewGallery))
			s := New(st, loadedRegistry(t), router)

			s.Sync(context.Background())

			assert.Equal(t, models.ViewOverview, st.Current().View)
			assert.Equal(t, []string{"/"}, router.replaced)
		})
	}
}

func TestSyncIsNoOpBeforeRegistryLoads(t *testing.T) {
	router := &fakeRouter{path: "/tool/free-generation"}
	st := stack.New()
	s := New(st, registry.New(), router)

	s.Sync(context.Background())

	assert.Equal(t, models.ViewOverview, st.Current().View)
	assert.Equal(t, 1, st.Len())
	assert.Empty(t, router.replaced)
}

func TestSyncSkipsForeignPaths(t *testing.T) {
	for _, path := range []string{"/payment", "/payment/success", "/admin/users"} {
		t.Run(path, func(t *testing.T) {
			router := &fakeRouter{path: path}
			st := stack.New()
			s := New(st, loadedRegistry(t), router)

			s.Sync(context.Background())

			assert.Equal(t, models.ViewOverview, st.Current().View)
			assert.Equal(t, 1, st.Len())
			assert.Empty(t, router.replaced)
		})
	}
}

func TestSyncRedundantRouteEventPreservesState(t *testing.T) {
	router := &fakeRouter{path: "/tool/free-generation"}
	st := stack.New()
	s := New(st, loadedRegistry(t), router)
	ctx := context.Background()

	s.Sync(ctx)
	require.Equal(t, models.ViewFreeGeneration, st.Current().View)

	// User progresses within the tool, then the same path is re-delivered.
	gen := st.Current().State.(models.FreeGenerationState)
	gen.Stage = models.StageGenerating
	gen.Prompt = "a lighthouse at dusk"
	require.NoError(t, st.MutateCurrent(gen))

	s.Sync(ctx)

	after := st.Current().State.(models.FreeGenerationState)
	assert.Equal(t, models.StageGenerating, after.Stage)
	assert.Equal(t, "a lighthouse at dusk", after.Prompt)
}

func TestRunAppliesPathOnceRegistryReady(t *testing.T) {
	router := &fakeRouter{path: "/prompt-library"}
	st := stack.New()
	reg := registry.New()
	s := New(st, reg, router)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(context.Background())
	}()

	require.NoError(t, reg.LoadBytes(context.Background(), []byte(registryConfig)))
	<-done

	assert.Equal(t, models.ViewPromptLibrary, st.Current().View)
}

func TestNavigatePushesStackAndAddressBar(t *testing.T) {
	router := &fakeRouter{path: "/"}
	st := stack.New()
	s := New(st, loadedRegistry(t), router)
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, models.ViewGallery))
	assert.Equal(t, models.ViewGallery, st.Current().View)
	assert.Equal(t, []string{"/gallery"}, router.pushed)

	require.NoError(t, s.Navigate(ctx, models.ViewPhotoRestoration))
	assert.Equal(t, models.ViewPhotoRestoration, st.Current().View)
	assert.Equal(t, "/tool/photo-restoration", router.path)
}

func TestNavigateUnregisteredToolFallsBackToOverview(t *testing.T) {
	router := &fakeRouter{path: "/gallery"}
	st := stack.New()
	require.NoError(t, st.NavigateTo(models.ViewGallery))
	s := New(st, loadedRegistry(t), router)

	require.NoError(t, s.Navigate(context.Background(), models.ViewSwapStyle))

	assert.Equal(t, models.ViewOverview, st.Current().View)
	assert.Equal(t, []string{"/"}, router.pushed)
}

func TestPageParamFollowsNavigation(t *testing.T) {
	router := NewMemoryRouter()
	st := stack.New()
	s := New(st, loadedRegistry(t), router)
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, models.ViewGallery))
	s.SetPage(2)

	page, ok := s.Page()
	require.True(t, ok)
	assert.Equal(t, 2, page)

	// Leaving the paginated view drops the parameter with the rest of the
	// query.
	require.NoError(t, s.Navigate(ctx, models.ViewSettings))
	_, ok = s.Page()
	assert.False(t, ok)
}

func TestPathFor(t *testing.T) {
	assert.Equal(t, "/", PathFor(models.ViewOverview))
	assert.Equal(t, "/tool", PathFor(models.ViewGenerators))
	assert.Equal(t, "/tool/dress-the-model", PathFor(models.ViewDressTheModel))
	assert.Equal(t, "/profile", PathFor(models.ViewProfile))
}
