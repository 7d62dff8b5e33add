package model

import "sync"

type ViewID string

var (
	viewRegistry   []ViewID
	viewRegistryMu sync.Mutex
)

func DefineView(name string) ViewID {
	viewRegistryMu.Lock()
	defer viewRegistryMu.Unlock()

	id := ViewID(name)
	viewRegistry = append(viewRegistry, id)
	return id
}

func AllViews() []ViewID {
	viewRegistryMu.Lock()
	defer viewRegistryMu.Unlock()

	result := make([]ViewID, len(viewRegistry))
	copy(result, viewRegistry)
	return result
}

// --- Views ---

var (
	// ViewCoverage reports first/last observed date and row count per symbol.
	ViewCoverage = DefineView("v_coverage")
	// ViewLatestClose reports the most recent close per symbol.
	ViewLatestClose = DefineView("v_latest_close")
)
