package symlinker

import "strings"

// titleReplacer replaces characters that are unsafe in file names.
var titleReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// SanitizeTitle makes a title usable as part of a file name.
func SanitizeTitle(title string) string {
	return strings.TrimSpace(titleReplacer.Replace(strings.TrimSpace(title)))
}
