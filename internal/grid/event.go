package grid

// HitKind is the part of the grid under the pointer.
type HitKind int

const (
	HitBackground HitKind = iota
	HitBody
	HitTopHandle
	HitBottomHandle
)

// Hit describes what a pointer press landed on.
type Hit struct {
	Kind   HitKind
	TaskID string
}

// Pointer is a pointer press in grid coordinates.
type Pointer struct {
	X, Y float64
	Hit  Hit
	// Duplicate is the clone modifier held at press time.
	Duplicate bool
}

// Key is a keyboard command understood by the grid.
type Key int

const (
	KeyDelete Key = iota
	KeySpace
	KeyEscape
	KeyEnter
)

// State is the active gesture kind.
type State int

const (
	StateIdle State = iota
	StateMove
	StateResizeTop
	StateResizeBottom
	StateEditTitle
	StateMarquee
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMove:
		return "dragging-move"
	case StateResizeTop:
		return "dragging-resize-top"
	case StateResizeBottom:
		return "dragging-resize-bottom"
	case StateEditTitle:
		return "editing-title"
	case StateMarquee:
		return "marquee-select"
	default:
		return "unknown"
	}
}

// Guide is the alignment line shown when a dragged edge snaps to a neighbor.
type Guide struct {
	Day     int
	Minutes int
}
