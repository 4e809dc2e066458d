package services

// Shape recognizes one known layout of an audio url response.
//
// Match reports whether doc has the layout and, if so, the url it carries. A
// matched layout may still hold an empty url.
type Shape struct {
	Name  string
	Match func(doc Document) (string, bool)
}

// AudioURLShapes are the /song/url layouts seen from NodeJS mirrors, most specific first.
var AudioURLShapes = []Shape{
	{Name: "data-list", Match: matchDataList},
	{Name: "flat-url", Match: matchFlatURL},
}

// MatchShape returns the first shape in shapes that matches doc.
func MatchShape(doc Document, shapes []Shape) (Shape, string, bool) {
	for _, shape := range shapes {
		if u, ok := shape.Match(doc); ok {
			return shape, u, true
		}
	}
	return Shape{}, "", false
}

// {"data": [{"url": "..."}]}
func matchDataList(doc Document) (string, bool) {
	data, ok := doc.List("data")
	if !ok || len(data) == 0 {
		return "", false
	}
	first, ok := asDocument(data[0])
	if !ok {
		return "", true
	}
	u, _ := first.String("url")
	return u, true
}

// {"url": "..."}
func matchFlatURL(doc Document) (string, bool) {
	u, ok := doc.String("url")
	if !ok || u == "" {
		return "", false
	}
	return u, true
}
