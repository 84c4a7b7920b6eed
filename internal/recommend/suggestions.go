package recommend

// FallbackSuggestions is the static list surfaced when a session runs out
// of cards. Generic low-effort actions, no recommendation data attached.
var FallbackSuggestions = []string{
	"Take a 5-minute walk",
	"Do some stretches",
	"Drink a glass of water",
	"Tidy one surface",
	"Write 3 things you're grateful for",
	"Take 10 deep breaths",
	"Listen to one song",
	"Sort through 5 emails",
	"Water a plant",
	"Wipe down a counter",
	"Set a 2-minute timer and just start",
	"Text someone you appreciate",
}
