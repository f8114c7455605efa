package render

// Kind selects what a render produces.
type Kind int

// Render kinds.
const (
	KindEmail Kind = iota + 1
	KindStyles
	KindBoth
	// KindImages is reported by image processing errors.
	KindImages
)

func (k Kind) String() string {
	switch k {
	case KindEmail:
		return "email"
	case KindStyles:
		return "styles"
	case KindBoth:
		return "both"
	case KindImages:
		return "images"
	default:
		return "unknown"
	}
}

// ArtifactSet lists artifact paths relative to the output root.
type ArtifactSet []string
