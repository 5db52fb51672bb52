package measurement

// HallSheet is the workbook sheet holding the Hall summary
const HallSheet = "Summary"

// HallCoordinates addresses the Hall summary fields
var HallCoordinates = NewCoordinateTable(
	Field{"Hall mobility", at(HallSheet, 4, 21)},
	Field{"Carrier type", at(HallSheet, 4, 22)},
	Field{"Carrier concentration", at(HallSheet, 4, 23)},
	Field{"Sheet carrier concentration", at(HallSheet, 4, 24)},
	Field{"Hall coefficient", at(HallSheet, 4, 25)},
	Field{"Sheet Hall coefficient", at(HallSheet, 4, 26)},
	Field{"Resistivity", at(HallSheet, 4, 27)},
	Field{"Sheet resistivity", at(HallSheet, 4, 28)},
	Field{"Hall voltage", at(HallSheet, 4, 29)},
	Field{"Thickness", at(HallSheet, 2, 9)},
)

// Hall is a Hall-effect measurement workbook
type Hall struct {
	*Spreadsheet
}

// NewHall loads a Hall measurement workbook (.xlsx or .xlsm)
func NewHall(path string, opts ...Option) (Measurement, error) {
	s, err := openSpreadsheet(path, VariantHall, HallCoordinates, opts)
	if err != nil {
		return nil, err
	}
	return &Hall{Spreadsheet: s}, nil
}
