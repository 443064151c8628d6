package aggregate

// Palette is the series color cycle handed to the chart renderer. Series i is
// drawn with Palette[i mod len(Palette)], so a category keeps its color as long
// as its position in the category list does not change.
var Palette = []string{
	"#3B82F6",
	"#10B981",
	"#8B5CF6",
	"#F59E0B",
	"#EF4444",
	"#059669",
	"#EC4899",
	"#6366F1",
	"#14B8A6",
	"#F97316",
}

// OtherColor is used for the optional "Other" pie slice.
const OtherColor = "#94A3B8"

// ColorFor returns the palette color for series index i.
func ColorFor(i int) string {
	n := len(Palette)
	i %= n
	if i < 0 {
		i += n
	}
	return Palette[i]
}
