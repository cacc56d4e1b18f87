package export

// Kind identifies the type of an exported artifact.
type Kind string

const (
	KindImage           Kind = "image"
	KindGeometry        Kind = "geometry"
	KindMaterialLibrary Kind = "material-library"
	KindPlacementTable  Kind = "placement-table"
	KindStructuredDump  Kind = "structured-dump"
)

// Entry records one artifact produced by an export.
type Entry struct {
	Kind       Kind   `json:"kind"`
	FileDataID uint32 `json:"fileDataID"`
	Path       string `json:"path"`
}

// Manifest is the ordered list of artifacts produced by one export call.
type Manifest struct {
	Entries []Entry `json:"entries"`
}

// Add appends an entry.
func (m *Manifest) Add(kind Kind, fileDataID uint32, path string) {
	m.Entries = append(m.Entries, Entry{Kind: kind, FileDataID: fileDataID, Path: path})
}

// ByKind returns the entries of one kind, in order.
func (m *Manifest) ByKind(kind Kind) []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.Entries)
}
