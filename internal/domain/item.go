package domain

// Box bounds of the Leitner system. Box 1 is reviewed most often, box 5 least.
const (
	MinBox = 1
	MaxBox = 5
)

// Item is one stored piece of content tracked by the review engine. The
// content itself lives with the delivery transport; the engine only keeps the
// locator needed to re-send it.
type Item struct {
	Owner    int64 // user the item belongs to; every operation is scoped by it
	ID       int64 // transport-assigned message id, unique per owner
	Location int64 // chat the content was submitted in, used to re-fetch it
	Box      int   // current Leitner box, always within [MinBox, MaxBox]
	Seq      int64 // insertion sequence, stable secondary ordering
}

// BoxStats aggregates an owner's item counts per box. Boxes with no items are
// present with a zero count.
type BoxStats struct {
	PerBox map[int]int
	Total  int
}

// ReviewTarget identifies one owner due for a review pass together with the
// most recently seen delivery location for that owner.
type ReviewTarget struct {
	Owner    int64
	Location int64
}
