package videos

import (
	"github.com/roxby/tubesearch/internal/engine"
)

// RatingScriptID names the rating sort script. Engines without Painless dispatch on it.
const RatingScriptID = "tubesearch-video-rating"

// RatingScriptSource computes likes / (likes + dislikes), 0 for unrated videos.
const RatingScriptSource = `double l = doc['likes'].size() == 0 ? 0 : doc['likes'].value;
double d = doc['dislikes'].size() == 0 ? 0 : doc['dislikes'].value;
return (l + d) == 0 ? 0 : l / (l + d);`

// RatingScript is the sort script ordering videos by like ratio.
func RatingScript() *engine.Script {
	return &engine.Script{ID: RatingScriptID, Source: RatingScriptSource, Lang: "painless"}
}

// Rating evaluates the rating sort script in process.
func Rating(source engine.Document, _ map[string]any) float64 {
	l, d := number(source[FieldLikes]), number(source[FieldDislikes])
	if l+d == 0 {
		return 0
	}
	return l / (l + d)
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
