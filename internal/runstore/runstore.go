// Package runstore persists model runs and prediction events.
package runstore

import (
	"sync"

	"github.com/defectlab/defectscan/internal/contract"
)

// RunStoreManager manages the RunStore instance shared across commands.
type RunStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	runs         contract.RunStore
}

var _ contract.RunManager = &RunStoreManager{} // Compile-time check

// GetRunStore returns the run RunStore.
func (mgr *RunStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
