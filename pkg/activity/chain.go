package activity

import (
	"fmt"
	"time"
)

// verifyLink checks one event against the hash of its predecessor. Any of
// the candidate content encodings may match.
func verifyLink(i int, e Event, prevHash string, contents ...[]byte) error {
	if e.PrevHash != prevHash {
		return fmt.Errorf("event %d (%s): prev_hash mismatch: got %s, want %s", i, e.ID, e.PrevHash, prevHash)
	}
	for _, c := range contents {
		if e.Hash == computeHash(prevHash, e.ID, e.Type, e.WorkspaceID, e.TaskID, e.ActorID, e.Timestamp, c) {
			return nil
		}
	}
	return fmt.Errorf("event %d (%s): hash mismatch", i, e.ID)
}

// nextTimestamp returns now at microsecond precision, moved past head when
// the clock has not advanced beyond the chain head.
func nextTimestamp(now, head time.Time) time.Time {
	now = now.Truncate(time.Microsecond)
	if !head.IsZero() && !now.After(head) {
		return head.Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return now
}
