package snapshots

import "smartattendance/backend/internal/service/snapshot"

type Snapshots interface {
	Last() snapshot.LastResult
	List() []snapshot.Snapshot
	Get(i int) (snapshot.Snapshot, bool)
}
