package model

// PayloadKind tags the content stored in a reminder.
type PayloadKind string

const (
	PayloadText  PayloadKind = "text"
	PayloadPhoto PayloadKind = "photo"
)

// Payload holds either inline text or a handle to a stored photo blob.
type Payload struct {
	Kind  PayloadKind `gorm:"size:16;not null"`
	Value string      `gorm:"type:text;not null"`
}

func TextPayload(text string) Payload {
	return Payload{Kind: PayloadText, Value: text}
}

func PhotoPayload(handle string) Payload {
	return Payload{Kind: PayloadPhoto, Value: handle}
}

func (p Payload) IsText() bool  { return p.Kind == PayloadText }
func (p Payload) IsPhoto() bool { return p.Kind == PayloadPhoto }

// Text returns the inline text and whether the payload is a text payload.
func (p Payload) Text() (string, bool) {
	return p.Value, p.IsText()
}

// PhotoHandle returns the media handle and whether the payload is a photo payload.
func (p Payload) PhotoHandle() (string, bool) {
	return p.Value, p.IsPhoto()
}
