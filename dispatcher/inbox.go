package dispatcher

import (
	"github.com/olabjorsne/nrc-sub000/core"
	"github.com/olabjorsne/nrc-sub000/msg"
)

// entryKind discriminates an inbox entry.
type entryKind int

const (
	entryMsg entryKind = iota
	entryEvt
)

// event is the one pending event record a node may have queued at a time;
// repeated SendEvt calls before the node runs OR-merge into the same
// record's mask instead of creating additional inbox entries, at priority
// max(new, existing).
type event struct {
	mask   core.EventMask
	prio   core.Priority
	queued bool
	entry  *inboxEntry // non-nil while queued, lets SendEvt heap.Fix it
}

// inboxEntry is either a queued message or a node-resident event record
// threaded into the queue, ordered by descending priority with FIFO
// tie-break via seq, mirroring the teacher's timerHeap ordering idiom
// applied to priority instead of deadline. index is maintained by
// priorityHeap so a merged event's priority can be re-fixed in place.
type inboxEntry struct {
	kind   entryKind
	target core.NodeID
	prio   core.Priority
	seq    uint64
	index  int

	m   *msg.Message // entryMsg
	evt *event       // entryEvt, shared with the node table entry
}

// priorityHeap implements container/heap.Interface. Higher priority pops
// first; among equal priorities, lower seq (earlier insertion) pops first.
type priorityHeap []*inboxEntry

func (h priorityHeap) Len() int { return len(h) }

func (h priorityHeap) Less(i, j int) bool {
	if h[i].prio != h[j].prio {
		return h[i].prio > h[j].prio
	}
	return h[i].seq < h[j].seq
}

func (h priorityHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *priorityHeap) Push(x any) {
	e := x.(*inboxEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}
