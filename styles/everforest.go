package styles

import (
	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/styles"
)

// EverforestLight is the light half of the default highlighting theme pair.
var EverforestLight = styles.Register(chroma.MustNewStyle("everforest-light", chroma.StyleEntries{
	chroma.Text:                "#5c6a72",
	chroma.Error:               "#f85552",
	chroma.Comment:             "italic #939f91",
	chroma.CommentPreproc:      "#df69ba",
	chroma.Keyword:             "#f85552",
	chroma.KeywordConstant:     "#df69ba",
	chroma.KeywordType:         "#dfa000",
	chroma.Operator:            "#f57d26",
	chroma.Punctuation:         "#939f91",
	chroma.Name:                "#5c6a72",
	chroma.NameAttribute:       "#dfa000",
	chroma.NameBuiltin:         "#3a94c5",
	chroma.NameClass:           "#dfa000",
	chroma.NameConstant:        "#df69ba",
	chroma.NameDecorator:       "#35a77c",
	chroma.NameException:       "#f85552",
	chroma.NameFunction:        "#8da101",
	chroma.NameOther:           "#5c6a72",
	chroma.NameTag:             "#f57d26",
	chroma.LiteralNumber:       "#df69ba",
	chroma.Literal:             "#35a77c",
	chroma.LiteralDate:         "#35a77c",
	chroma.LiteralString:       "#8da101",
	chroma.LiteralStringEscape: "#35a77c",
	chroma.GenericDeleted:      "#f85552",
	chroma.GenericEmph:         "italic",
	chroma.GenericHeading:      "#3a94c5 bold",
	chroma.GenericInserted:     "#8da101",
	chroma.GenericStrong:       "bold",
	chroma.GenericSubheading:   "#3a94c5",
	chroma.GenericUnderline:    "underline",
	chroma.Background:          "bg:#fdf6e3",
}))

// EverforestDark is the dark half of the default highlighting theme pair.
var EverforestDark = styles.Register(chroma.MustNewStyle("everforest-dark", chroma.StyleEntries{
	chroma.Text:                "#d3c6aa",
	chroma.Error:               "#e67e80",
	chroma.Comment:             "italic #859289",
	chroma.CommentPreproc:      "#d699b6",
	chroma.Keyword:             "#e67e80",
	chroma.KeywordConstant:     "#d699b6",
	chroma.KeywordType:         "#dbbc7f",
	chroma.Operator:            "#e69875",
	chroma.Punctuation:         "#859289",
	chroma.Name:                "#d3c6aa",
	chroma.NameAttribute:       "#dbbc7f",
	chroma.NameBuiltin:         "#7fbbb3",
	chroma.NameClass:           "#dbbc7f",
	chroma.NameConstant:        "#d699b6",
	chroma.NameDecorator:       "#83c092",
	chroma.NameException:       "#e67e80",
	chroma.NameFunction:        "#a7c080",
	chroma.NameOther:           "#d3c6aa",
	chroma.NameTag:             "#e69875",
	chroma.LiteralNumber:       "#d699b6",
	chroma.Literal:             "#83c092",
	chroma.LiteralDate:         "#83c092",
	chroma.LiteralString:       "#a7c080",
	chroma.LiteralStringEscape: "#83c092",
	chroma.GenericDeleted:      "#e67e80",
	chroma.GenericEmph:         "italic",
	chroma.GenericHeading:      "#7fbbb3 bold",
	chroma.GenericInserted:     "#a7c080",
	chroma.GenericStrong:       "bold",
	chroma.GenericSubheading:   "#7fbbb3",
	chroma.GenericUnderline:    "underline",
	chroma.Background:          "#d3c6aa bg:#2d353b",
}))

// Lookup returns the registered style with the given name and whether it exists.
func Lookup(name string) (*chroma.Style, bool) {
	style, ok := styles.Registry[name]
	return style, ok
}
