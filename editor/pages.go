package editor

import "slices"

// PageConfig - edit intent of one page for the page-grid tools
type PageConfig struct {
	PageNum  int  `json:"pageNum"`
	Rotation int  `json:"rotation"` // degrees, [0, 360)
	Deleted  bool `json:"deleted"`
}

// PageConfigs keeps at most one entry per page in creation order.
// Entries are created lazily and only ever dropped by an explicit Reset.
type PageConfigs struct {
	entries []PageConfig
}

func normalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

func (p *PageConfigs) entry(page int) *PageConfig {
	for i := range p.entries {
		if p.entries[i].PageNum == page {
			return &p.entries[i]
		}
	}
	p.entries = append(p.entries, PageConfig{PageNum: page})
	return &p.entries[len(p.entries)-1]
}

// Rotate accumulates a rotation delta modulo 360
func (p *PageConfigs) Rotate(page, angle int) PageConfig {
	e := p.entry(page)
	e.Rotation = normalizeRotation(e.Rotation + angle)
	return *e
}

func (p *PageConfigs) Delete(page int) PageConfig {
	e := p.entry(page)
	e.Deleted = true
	return *e
}

// Reset drops the entry of a page, reporting whether there was one
func (p *PageConfigs) Reset(page int) bool {
	i := slices.IndexFunc(p.entries, func(c PageConfig) bool { return c.PageNum == page })
	if i < 0 {
		return false
	}
	p.entries = slices.Delete(p.entries, i, i+1)
	return true
}

func (p *PageConfigs) Get(page int) (PageConfig, bool) {
	for _, c := range p.entries {
		if c.PageNum == page {
			return c, true
		}
	}
	return PageConfig{}, false
}

// List returns a copy, never nil
func (p *PageConfigs) List() []PageConfig {
	out := make([]PageConfig, len(p.entries))
	copy(out, p.entries)
	return out
}
