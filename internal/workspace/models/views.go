// Package models defines the view identifiers and per-view state variants
// that make up the navigation stack.
//
// ViewState is a closed tagged union: each view ID maps to exactly one state
// variant, the factory is an exhaustive switch, and nothing outside this
// package can add a variant. That replaces the historical string-keyed
// any-typed state lookup, where a typo'd view ID silently produced a default
// state at runtime.
package models

import (
	"reflect"

	dErrors "atelier/pkg/domain-errors"
)

// ViewID names one view (tool or system page) of the host application.
type ViewID string

// System views map 1:1 to reserved top-level paths.
const (
	ViewOverview      ViewID = "overview"
	ViewGenerators    ViewID = "generators"
	ViewGallery       ViewID = "gallery"
	ViewPromptLibrary ViewID = "prompt-library"
	ViewStoryboarding ViewID = "storyboarding"
	ViewProfile       ViewID = "profile"
	ViewSettings      ViewID = "settings"
)

// Tool views are reachable under the /tool/<id> path prefix and must also be
// present in the loaded tool registry to be navigable.
const (
	ViewFreeGeneration     ViewID = "free-generation"
	ViewPhotoRestoration   ViewID = "photo-restoration"
	ViewAvatarCreator      ViewID = "avatar-creator"
	ViewSwapStyle          ViewID = "swap-style"
	ViewDressTheModel      ViewID = "dress-the-model"
	ViewImageInterpolation ViewID = "image-interpolation"
)

var systemViews = map[ViewID]bool{
	ViewOverview:      true,
	ViewGenerators:    true,
	ViewGallery:       true,
	ViewPromptLibrary: true,
	ViewStoryboarding: true,
	ViewProfile:       true,
	ViewSettings:      true,
}

var toolViews = map[ViewID]bool{
	ViewFreeGeneration:     true,
	ViewPhotoRestoration:   true,
	ViewAvatarCreator:      true,
	ViewSwapStyle:          true,
	ViewDressTheModel:      true,
	ViewImageInterpolation: true,
}

// IsSystem reports whether v is a reserved system view.
func IsSystem(v ViewID) bool { return systemViews[v] }

// IsTool reports whether v is a known tool view.
func IsTool(v ViewID) bool { return toolViews[v] }

// ParseViewID validates a raw string against the closed view set.
func ParseViewID(s string) (ViewID, error) {
	v := ViewID(s)
	if systemViews[v] || toolViews[v] {
		return v, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown view id: "+s)
}

// Stage tracks where a tool is within its lifecycle.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageConfiguring Stage = "configuring"
	StageGenerating  Stage = "generating"
	StageResults     Stage = "results"
)

// ViewState is the closed union of per-view states. The marker method keeps
// the set of variants confined to this package.
type ViewState interface {
	View() ViewID
	isViewState()
}

// SystemState is the shared idle state of the non-tool views; these views
// hold no tool configuration so the variant only carries its identity.
type SystemState struct {
	ID ViewID
}

func (s SystemState) View() ViewID { return s.ID }
func (SystemState) isViewState()   {}

// FreeGenerationState backs the free-form prompt generator.
type FreeGenerationState struct {
	Stage            Stage
	Prompt           string
	InputImages      []string
	GeneratedImages  []string
	HistoricalImages []string
	NumberOfImages   int
	AspectRatio      string
	RemoveWatermark  bool
	ErrorMessage     string
}

func (FreeGenerationState) View() ViewID { return ViewFreeGeneration }
func (FreeGenerationState) isViewState() {}

// PhotoRestorationState backs the old-photo restoration tool.
type PhotoRestorationState struct {
	Stage            Stage
	UploadedImage    string
	GeneratedImage   string
	HistoricalImages []string
	Options          RestorationOptions
	ErrorMessage     string
}

// RestorationOptions tunes a restoration run.
type RestorationOptions struct {
	Type            string
	Gender          string
	Age             string
	Nationality     string
	Notes           string
	RemoveWatermark bool
	RemoveStains    bool
	ColorizeRGB     bool
}

func (PhotoRestorationState) View() ViewID { return ViewPhotoRestoration }
func (PhotoRestorationState) isViewState() {}

// AvatarCreatorState backs the idea-driven avatar generator.
type AvatarCreatorState struct {
	Stage               Stage
	UploadedImage       string
	StyleReferenceImage string
	GeneratedImages     map[string]string
	HistoricalImages    []string
	SelectedIdeas       []string
	AdditionalPrompt    string
	AspectRatio         string
	RemoveWatermark     bool
	ErrorMessage        string
}

func (AvatarCreatorState) View() ViewID { return ViewAvatarCreator }
func (AvatarCreatorState) isViewState() {}

// SwapStyleState backs the style transfer tool.
type SwapStyleState struct {
	Stage            Stage
	ContentImage     string
	StyleImage       string
	GeneratedImage   string
	HistoricalImages []string
	Style            string
	StyleStrength    string
	Notes            string
	RemoveWatermark  bool
	ConvertToReal    bool
	ErrorMessage     string
}

func (SwapStyleState) View() ViewID { return ViewSwapStyle }
func (SwapStyleState) isViewState() {}

// DressTheModelState backs the clothing try-on tool.
type DressTheModelState struct {
	Stage            Stage
	ModelImage       string
	ClothingImage    string
	GeneratedImage   string
	HistoricalImages []string
	Background       string
	Pose             string
	Style            string
	AspectRatio      string
	Notes            string
	RemoveWatermark  bool
	ErrorMessage     string
}

func (DressTheModelState) View() ViewID { return ViewDressTheModel }
func (DressTheModelState) isViewState() {}

// ImageInterpolationState backs the prompt-extraction interpolation tool.
type ImageInterpolationState struct {
	Stage            Stage
	InputImage       string
	OutputImage      string
	ReferenceImage   string
	GeneratedPrompt  string
	GeneratedImage   string
	HistoricalImages []string
	Notes            string
	RemoveWatermark  bool
	ErrorMessage     string
}

func (ImageInterpolationState) View() ViewID { return ViewImageInterpolation }
func (ImageInterpolationState) isViewState() {}

// InitialStateFor returns the reset ("idle") state for a view. The switch is
// exhaustive over the closed view set; an unparsed view ID is the only way to
// reach the error branch.
func InitialStateFor(v ViewID) (ViewState, error) {
	switch v {
	case ViewOverview, ViewGenerators, ViewGallery, ViewPromptLibrary,
		ViewStoryboarding, ViewProfile, ViewSettings:
		return SystemState{ID: v}, nil
	case ViewFreeGeneration:
		return FreeGenerationState{Stage: StageConfiguring, NumberOfImages: 1}, nil
	case ViewPhotoRestoration:
		return PhotoRestorationState{
			Stage: StageIdle,
			Options: RestorationOptions{
				RemoveStains: true,
				ColorizeRGB:  true,
			},
		}, nil
	case ViewAvatarCreator:
		return AvatarCreatorState{Stage: StageIdle}, nil
	case ViewSwapStyle:
		return SwapStyleState{Stage: StageIdle, StyleStrength: "strong"}, nil
	case ViewDressTheModel:
		return DressTheModelState{Stage: StageIdle}, nil
	case ViewImageInterpolation:
		return ImageInterpolationState{Stage: StageIdle}, nil
	}
	return nil, dErrors.New(dErrors.CodeInvalidInput, "no state variant for view: "+string(v))
}

// ViewEntry pairs a view with its typed state; one element of the
// navigation stack.
type ViewEntry struct {
	View  ViewID
	State ViewState
}

// NewEntry builds an entry whose View always matches its state's variant,
// keeping the pairing invariant true by construction.
func NewEntry(state ViewState) ViewEntry {
	return ViewEntry{View: state.View(), State: state}
}

// StateEqual reports deep equality of two view states. Used for idempotent
// navigation and the no-op guard on state mutation.
func StateEqual(a, b ViewState) bool {
	return reflect.DeepEqual(a, b)
}
