package content

// Panel IDs double as page anchors.
const (
	PanelAbout          = "about"
	PanelSkills         = "skills"
	PanelProjects       = "projects"
	PanelCertifications = "certifications"
	PanelContact        = "contact"
)

// Panel is one page section. Children counts the staggered elements inside
// it, the section heading included.
type Panel struct {
	ID       string
	Title    string
	Children int
}

// Panels lists the sections in page order.
func (p *Portfolio) Panels() []Panel {
	return []Panel{
		{ID: PanelAbout, Title: "About Me", Children: 2},
		{ID: PanelSkills, Title: "Skills", Children: 1 + len(p.SkillGroups) + 1},
		{ID: PanelProjects, Title: "Projects", Children: 1 + len(p.Projects)},
		{ID: PanelCertifications, Title: "Certifications", Children: 1 + len(p.Certifications)},
		{ID: PanelContact, Title: "Contact", Children: 3},
	}
}

// Panel looks a section up by ID.
func (p *Portfolio) Panel(id string) (Panel, bool) {
	for _, panel := range p.Panels() {
		if panel.ID == id {
			return panel, true
		}
	}
	return Panel{}, false
}
