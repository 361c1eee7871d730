// SPDX-License-Identifier: MPL-2.0

package buildtrace

import (
	"errors"
	"fmt"
)

const (
	// KindBuild is the root of every trace.
	KindBuild Kind = iota
	// KindProject is a project build (one per project and global property set).
	KindProject
	// KindProjectEvaluation is the evaluation of a project file.
	KindProjectEvaluation
	// KindTarget is an executed build target.
	KindTarget
	// KindTask is a task run inside a target.
	KindTask
	// KindFolder is a named container without build semantics.
	KindFolder
	// KindAddItem records items added to an item group.
	KindAddItem
	// KindRemoveItem records items removed from an item group.
	KindRemoveItem
	// KindParameter is a task input or output parameter holding items.
	KindParameter
	// KindItem is a single item; its value is the item text.
	KindItem
	// KindMetadata is item metadata.
	KindMetadata
	// KindProperty is a property; its value is the property value.
	KindProperty
	// KindMessage is a logged message.
	KindMessage
	// KindWarning is a logged warning.
	KindWarning
	// KindError is a logged error.
	KindError

	kindCount
)

// ErrInvalidKind is the sentinel error wrapped by InvalidKindError.
var ErrInvalidKind = errors.New("invalid node kind")

type (
	// Kind is the closed set of node variants a trace can hold.
	Kind uint8

	// InvalidKindError is returned when a Kind value is outside the defined set.
	// It wraps ErrInvalidKind for errors.Is() compatibility.
	InvalidKindError struct {
		Value Kind
	}
)

// kindNames doubles as the XML element name of each kind.
var kindNames = [kindCount]string{
	KindBuild:             "Build",
	KindProject:           "Project",
	KindProjectEvaluation: "ProjectEvaluation",
	KindTarget:            "Target",
	KindTask:              "Task",
	KindFolder:            "Folder",
	KindAddItem:           "AddItem",
	KindRemoveItem:        "RemoveItem",
	KindParameter:         "Parameter",
	KindItem:              "Item",
	KindMetadata:          "Metadata",
	KindProperty:          "Property",
	KindMessage:           "Message",
	KindWarning:           "Warning",
	KindError:             "Error",
}

// String returns the element name of the kind.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Validate returns nil if the Kind is one of the defined node kinds.
func (k Kind) Validate() error {
	if k < kindCount {
		return nil
	}
	return &InvalidKindError{Value: k}
}

// Error implements the error interface.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid node kind %d", e.Value)
}

// Unwrap returns ErrInvalidKind for errors.Is() compatibility.
func (e *InvalidKindError) Unwrap() error { return ErrInvalidKind }

// ParseKind maps an element name to its kind. Element names that belong to
// the structured log but carry no extra semantics here are folded into their
// closest kind; unknown names report false.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	switch name {
	case "TaskParameterItem", "TaskParameter", "InputParameter", "OutputParameter":
		return KindParameter, true
	case "Parameters", "Properties", "Items", "TargetOutputs", "OutputItems":
		return KindFolder, true
	case "CriticalBuildMessage":
		return KindMessage, true
	}
	return KindFolder, false
}

// hasValue reports whether nodes of this kind carry a value.
func (k Kind) hasValue() bool {
	switch k {
	case KindProject, KindProjectEvaluation, KindItem, KindMetadata, KindProperty,
		KindMessage, KindWarning, KindError:
		return true
	default:
		return false
	}
}
