package fb2

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// renderEvent is the flattened, already-tag-mapped representation of one XML
// token, collected in phase 1 of RenderHTML and replayed in phase 2 once
// every <binary> has been seen and its data is available to inline.
type renderEvent struct {
	kind     string // "open", "close", "text", "selfclose"
	tag      string
	id       string
	href     string
	imageRef string // for "image" events: the binary id to inline
}

type binaryImage struct {
	contentType string
	base64Data  string
}

// RenderHTML converts a decoded FB2 document body into a small self-
// contained HTML fragment, inlining every referenced <binary> as a data:
// URI image. It runs in two passes because a <binary> can appear anywhere
// in the document, including after the <body> element that references it:
// phase 1 walks the whole token stream once, building the id -> image map
// and a flat list of tag-mapped events; phase 2 replays those events,
// substituting in image data that is only now guaranteed to be known.
func (f *Format) RenderHTML(decodedXML string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(decodedXML))
	dec.Strict = false

	images := map[string]binaryImage{}
	var events []renderEvent

	var curBinaryID, curBinaryCT string
	var curBinaryB64 strings.Builder
	inBinary := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("render: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if name == "binary" {
				inBinary = true
				curBinaryID, _ = attr(t, "id")
				curBinaryCT, _ = attr(t, "content-type")
				curBinaryB64.Reset()
				continue
			}
			if inBinary {
				continue
			}
			ev := mapOpenTag(t, name)
			events = append(events, ev)
		case xml.EndElement:
			name := t.Name.Local
			if name == "binary" {
				inBinary = false
				images[curBinaryID] = binaryImage{contentType: curBinaryCT, base64Data: curBinaryB64.String()}
				continue
			}
			if inBinary {
				continue
			}
			if tag, ok := closeTagFor(name); ok {
				events = append(events, renderEvent{kind: "close", tag: tag})
			}
		case xml.CharData:
			if inBinary {
				curBinaryB64.Write(t)
				continue
			}
			events = append(events, renderEvent{kind: "text", tag: string(t)})
		}
	}

	var out strings.Builder
	for _, ev := range events {
		switch ev.kind {
		case "open":
			out.WriteString("<")
			out.WriteString(ev.tag)
			if ev.id != "" {
				fmt.Fprintf(&out, " id=%q", ev.id)
			}
			if ev.href != "" {
				if ev.tag == "a" {
					fmt.Fprintf(&out, " href=%q", ev.href)
				}
			}
			if ev.tag == "img" && ev.imageRef != "" {
				if img, ok := images[ev.imageRef]; ok {
					fmt.Fprintf(&out, " src=\"data:%s;base64,%s\"", img.contentType, img.base64Data)
				}
				out.WriteString(" />")
				continue
			}
			out.WriteString(">")
		case "selfclose":
			out.WriteString("<")
			out.WriteString(ev.tag)
			out.WriteString(" />")
		case "close":
			out.WriteString("</")
			out.WriteString(ev.tag)
			out.WriteString(">")
		case "text":
			out.WriteString(xmlEscape(ev.tag))
		}
	}
	return out.String(), nil
}

// mapOpenTag implements the FB2-to-HTML tag table: structural tags keep
// their name, "emphasis" becomes "em", "image" becomes an <img> referencing
// its binary id (href, minus a leading '#', used as the lookup key), and any
// unrecognized tag becomes a generic <div> so nothing is silently dropped.
func mapOpenTag(start xml.StartElement, name string) renderEvent {
	id, _ := attr(start, "id")
	switch name {
	case "body":
		return renderEvent{kind: "open", tag: "div", id: id}
	case "p", "strong", "sup", "sub", "table", "tr", "th", "td":
		return renderEvent{kind: "open", tag: name, id: id}
	case "emphasis":
		return renderEvent{kind: "open", tag: "em", id: id}
	case "a":
		href, _ := attr(start, "href")
		return renderEvent{kind: "open", tag: "a", id: id, href: href}
	case "image":
		href, ok := attr(start, "href")
		if !ok {
			href, _ = attr(start, "l:href")
		}
		href = strings.TrimPrefix(href, "#")
		return renderEvent{kind: "open", tag: "img", imageRef: href}
	case "empty-line":
		return renderEvent{kind: "selfclose", tag: "br"}
	default:
		return renderEvent{kind: "open", tag: "div", id: id}
	}
}

// closeTagFor mirrors mapOpenTag for end tags. empty-line never gets a
// close tag (it was emitted self-closing); image is written self-closing
// at open time so it has no corresponding close either.
func closeTagFor(name string) (string, bool) {
	switch name {
	case "body":
		return "div", true
	case "p", "strong", "sup", "sub", "table", "tr", "th", "td":
		return name, true
	case "emphasis":
		return "em", true
	case "a":
		return "a", true
	case "empty-line", "image":
		return "", false
	default:
		return "div", true
	}
}

func xmlEscape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
