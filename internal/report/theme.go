// Package report renders run results as a markdown dashboard or as InfluxDB
// line protocol.
package report

// Theme selects the layout and status icons of the markdown dashboard.
type Theme struct {
	Name     string
	PassIcon string
	FailIcon string
}

// Known themes.
var (
	Modern = Theme{
		Name:     "modern",
		PassIcon: "<i class='bi bi-check-circle-fill status-pass'></i>",
		FailIcon: "<i class='bi bi-x-circle-fill status-fail'></i>",
	}
	Legacy = Theme{
		Name:     "legacy",
		PassIcon: "&#x1F49A;",
		FailIcon: "&#x1F534;",
	}
)

// ThemeByName returns the named theme. Unknown names yield Modern and
// ok=false so the caller can warn.
func ThemeByName(name string) (t Theme, ok bool) {
	switch name {
	case "", Modern.Name:
		return Modern, true
	case Legacy.Name:
		return Legacy, true
	default:
		return Modern, false
	}
}

// Icon returns the status icon for a result.
func (t Theme) Icon(pass bool) string {
	if pass {
		return t.PassIcon
	}
	return t.FailIcon
}
