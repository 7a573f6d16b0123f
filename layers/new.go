package layers

// NewText builds an editable text layer at a page-space position
func NewText(left, top float64, t Text) *Layer {
	return &Layer{
		Kind:       KindText,
		Transform:  IdentityAt(left, top),
		Opacity:    1,
		Selectable: true,
		Text:       &t,
	}
}

func NewRect(left, top float64, r Rect, selectable bool) *Layer {
	return &Layer{
		Kind:       KindRect,
		Transform:  IdentityAt(left, top),
		Opacity:    1,
		Selectable: selectable,
		Rect:       &r,
	}
}

func NewImage(left, top float64, img Image) *Layer {
	return &Layer{
		Kind:       KindImage,
		Transform:  IdentityAt(left, top),
		Opacity:    1,
		Selectable: true,
		Image:      &img,
	}
}

// NewPath places the layer at the top-left of its command bounds
func NewPath(p Path) *Layer {
	origin := PathOrigin(p.Commands)
	return &Layer{
		Kind:       KindPath,
		Transform:  IdentityAt(origin.X, origin.Y),
		Opacity:    1,
		Selectable: true,
		Path:       &p,
	}
}
