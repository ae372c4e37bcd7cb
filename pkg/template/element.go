package template

// Kind discriminates Element variants on the wire.
type Kind string

// Element kinds.
const (
	KindText  Kind = "text"
	KindShape Kind = "shape"
	KindImage Kind = "image"
)

// Element is one positioned visual primitive of a Template.
// The set of implementations is closed: Text, Shape and Image.
type Element interface {
	// ElementID returns the element's id, unique within its Template.
	ElementID() string
	// Kind returns the wire discriminator.
	Kind() Kind
	// Accept calls the Visitor method matching the variant.
	Accept(v Visitor)

	withID(id string) Element
}

// Visitor handles each Element variant. Implementations must handle all of
// them; a new variant is a compile error in every Visitor.
type Visitor interface {
	VisitText(Text)
	VisitShape(Shape)
	VisitImage(Image)
}

// WithID returns a copy of el carrying id.
func WithID(el Element, id string) Element {
	return el.withID(id)
}

// Text is a run of literal text or a data binding.
// When IsBinding is set, Content names a canonical card field such as
// "fullName" instead of holding literal text.
type Text struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Content    string  `json:"content"`
	IsBinding  bool    `json:"isBinding"`
	FontSize   float64 `json:"fontSize"`
	Fill       string  `json:"fill,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontStyle  string  `json:"fontStyle,omitempty"`
	TextAlign  string  `json:"textAlign,omitempty"` // left (default), center, right
}

// Shape is a filled rectangle with an optional stroke.
type Shape struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Fill        string  `json:"fill,omitempty"`
	StrokeColor string  `json:"strokeColor,omitempty"`
}

// Image is a raster or vector asset referenced by SourceRef.
type Image struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	SourceRef string  `json:"sourceRef"`
}

func (e Text) ElementID() string  { return e.ID }
func (e Shape) ElementID() string { return e.ID }
func (e Image) ElementID() string { return e.ID }

func (Text) Kind() Kind  { return KindText }
func (Shape) Kind() Kind { return KindShape }
func (Image) Kind() Kind { return KindImage }

func (e Text) Accept(v Visitor)  { v.VisitText(e) }
func (e Shape) Accept(v Visitor) { v.VisitShape(e) }
func (e Image) Accept(v Visitor) { v.VisitImage(e) }

func (e Text) withID(id string) Element  { e.ID = id; return e }
func (e Shape) withID(id string) Element { e.ID = id; return e }
func (e Image) withID(id string) Element { e.ID = id; return e }

// Text alignment values.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

var (
	_ Element = Text{}
	_ Element = Shape{}
	_ Element = Image{}
)
