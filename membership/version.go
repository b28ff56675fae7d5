package membership

// TableVersion is the version of the whole membership table. Every
// successful conditional write moves the table to the next version, and the
// etag of the current version must be presented to perform the write.
type TableVersion struct {
	Version int64  `json:"version"`
	ETag    string `json:"etag"`
}

// Next returns the version a writer has to propose to replace v.
func (v TableVersion) Next() TableVersion {
	return TableVersion{Version: v.Version + 1, ETag: v.ETag}
}

// Row is a table entry together with the etag of its last write.
type Row struct {
	Entry *Entry
	ETag  string
}

// TableData is the result of a table read.
type TableData struct {
	Rows    []Row
	Version TableVersion
}

// Find returns the row of the given silo.
func (t *TableData) Find(addr SiloAddress) (Row, bool) {
	for _, row := range t.Rows {
		if row.Entry.Address == addr {
			return row, true
		}
	}

	return Row{}, false
}
