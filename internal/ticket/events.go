package ticket

// Event is one incoming user update relevant to ticket collection.
type Event interface {
	isEvent()
}

// TextMessage is a plain text answer.
type TextMessage struct {
	Text string
}

func (TextMessage) isEvent() {}

// DocumentAttachment is a single file sent as a document.
type DocumentAttachment struct {
	// Ref identifies the file for later submission (file ID or URL).
	Ref  string
	Name string
}

func (DocumentAttachment) isEvent() {}

// PhotoSize is one resolution variant of a photo.
type PhotoSize struct {
	Ref      string
	FileSize int64
}

// PhotoAttachment is a photo with its resolution variants.
type PhotoAttachment struct {
	Sizes []PhotoSize
}

func (PhotoAttachment) isEvent() {}

// Best picks the highest-resolution variant. Variants arrive ordered
// from smallest to largest, so ties resolve to the last one.
func (p PhotoAttachment) Best() (PhotoSize, bool) {
	if len(p.Sizes) == 0 {
		return PhotoSize{}, false
	}
	best := p.Sizes[0]
	for _, s := range p.Sizes[1:] {
		if s.FileSize >= best.FileSize {
			best = s
		}
	}
	return best, true
}
