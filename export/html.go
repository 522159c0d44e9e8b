package export

import (
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tsawler/folio/internal/textutil"
	"github.com/tsawler/folio/model"
)

// pageStyle keeps the rendered document readable without chasing pixel
// fidelity: columns sit side by side and table borders stay visible.
const pageStyle = `body { font-family: serif; margin: 2em auto; max-width: 60em; }
.page + .page { border-top: 1px dashed #999; margin-top: 3em; padding-top: 3em; }
.columns { display: flex; gap: 2em; }
.columns > .column { flex: 1; min-width: 0; }
table { border-collapse: collapse; margin: 1em 0; }
td { border: 1px solid #999; padding: 0.25em 0.5em; vertical-align: top; }
p.vertical { writing-mode: vertical-rl; }
`

// HTMLWriter renders pages into one standalone HTML document. The node
// tree grows page by page and is serialized when the writer is closed,
// so nothing reaches the underlying writer until Close.
type HTMLWriter struct {
	w     io.Writer
	doc   *html.Node
	body  *html.Node
	pages int
}

// NewHTMLWriter creates an HTML sink writing to w on Close.
func NewHTMLWriter(w io.Writer) *HTMLWriter {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	root := elem("html")
	doc.AppendChild(root)

	head := elem("head")
	head.AppendChild(elem("meta", attr("charset", "utf-8")))
	style := elem("style")
	style.AppendChild(textNode(pageStyle))
	head.AppendChild(style)
	root.AppendChild(head)

	body := elem("body")
	root.AppendChild(body)
	return &HTMLWriter{w: w, doc: doc, body: body}
}

// AppendPage adds one page to the document tree. A placeholder page
// becomes an empty div carrying a data attribute so downstream tooling
// can tell it apart from a genuinely blank page.
func (h *HTMLWriter) AppendPage(tree *model.LayoutTree) error {
	page := elem("div", attr("class", "page"))
	if tree.Placeholder {
		page.Attr = append(page.Attr, attr("data-placeholder", "true"))
	}
	for _, sec := range tree.Sections {
		page.AppendChild(sectionNode(sec, tree.Tables))
	}
	h.body.AppendChild(page)
	h.pages++
	return nil
}

// Close serializes the accumulated document to the underlying writer.
func (h *HTMLWriter) Close() error {
	if err := html.Render(h.w, h.doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func sectionNode(sec model.Section, arena []model.Table) *html.Node {
	node := elem("section")
	if len(sec.Columns) > 1 {
		wrap := elem("div", attr("class", "columns"))
		for _, col := range sec.Columns {
			cn := elem("div", attr("class", "column"))
			appendBlocks(cn, col.Blocks, arena)
			wrap.AppendChild(cn)
		}
		node.AppendChild(wrap)
		return node
	}
	for _, col := range sec.Columns {
		appendBlocks(node, col.Blocks, arena)
	}
	return node
}

func appendBlocks(parent *html.Node, blocks []model.Block, arena []model.Table) {
	for _, b := range blocks {
		switch b.Kind {
		case model.BlockParagraph:
			if b.Paragraph != nil {
				parent.AppendChild(paragraphNode(b.Paragraph))
			}
		case model.BlockTable:
			if b.TableRef >= 0 && b.TableRef < len(arena) {
				parent.AppendChild(tableNode(arena[b.TableRef], arena))
			}
		case model.BlockImage:
			if b.Image != nil {
				parent.AppendChild(imageNode(b.Image))
			}
		}
	}
}

func paragraphNode(p *model.Paragraph) *html.Node {
	node := elem("p")
	var classes []string
	if p.Direction == model.Vertical {
		classes = append(classes, "vertical")
	}
	if p.Salvaged {
		classes = append(classes, "salvaged")
	}
	if len(classes) > 0 {
		node.Attr = append(node.Attr, attr("class", strings.Join(classes, " ")))
	}
	if p.Alignment != model.AlignLeft {
		node.Attr = append(node.Attr, attr("style", "text-align:"+p.Alignment.String()))
	}
	for i, line := range p.Lines {
		if i > 0 {
			node.AppendChild(textNode("\n"))
		}
		for _, r := range line.Runs {
			node.AppendChild(runNode(r))
		}
	}
	return node
}

// runNode wraps the run's text from the inside out, so a bold italic
// run renders as <b><i>text</i></b>.
func runNode(r model.Run) *html.Node {
	n := textNode(textutil.Normalize(r.Text))
	wrap := func(tag string) {
		e := elem(tag)
		e.AppendChild(n)
		n = e
	}
	if r.Style.Strike {
		wrap("s")
	}
	if r.Style.Underline {
		wrap("u")
	}
	if r.Style.Italic {
		wrap("i")
	}
	if r.Style.Bold {
		wrap("b")
	}
	var styles []string
	if r.Style.Color != (model.Color{}) {
		styles = append(styles, "color:"+cssColor(r.Style.Color))
	}
	if r.Style.Highlight != nil {
		styles = append(styles, "background-color:"+cssColor(*r.Style.Highlight))
	}
	if len(styles) > 0 {
		e := elem("span", attr("style", strings.Join(styles, ";")))
		e.AppendChild(n)
		n = e
	}
	return n
}

func tableNode(t model.Table, arena []model.Table) *html.Node {
	node := elem("table")
	for _, row := range t.Rows {
		tr := elem("tr")
		for _, cell := range row {
			if cell.Covered() {
				continue
			}
			td := elem("td")
			if cell.ColSpan > 1 {
				td.Attr = append(td.Attr, attr("colspan", strconv.Itoa(cell.ColSpan)))
			}
			if cell.RowSpan > 1 {
				td.Attr = append(td.Attr, attr("rowspan", strconv.Itoa(cell.RowSpan)))
			}
			appendBlocks(td, cell.Blocks, arena)
			tr.AppendChild(td)
		}
		node.AppendChild(tr)
	}
	return node
}

// imageNode prefers an inline data URI when the raster bytes travelled
// with the page, falling back to the source reference.
func imageNode(b *model.ImageBlock) *html.Node {
	node := elem("img", attr("alt", ""))
	src := b.Source.Ref
	if len(b.Source.Data) > 0 && b.Source.Format != "" {
		src = "data:image/" + b.Source.Format + ";base64," +
			base64.StdEncoding.EncodeToString(b.Source.Data)
	}
	if src != "" {
		node.Attr = append(node.Attr, attr("src", src))
	}
	if b.Source.PixelWidth > 0 {
		node.Attr = append(node.Attr, attr("width", strconv.Itoa(b.Source.PixelWidth)))
	}
	if b.Source.PixelHeight > 0 {
		node.Attr = append(node.Attr, attr("height", strconv.Itoa(b.Source.PixelHeight)))
	}
	if b.Placement == model.PlacementFloating {
		node.Attr = append(node.Attr, attr("class", "floating"))
	}
	return node
}

func elem(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, Attr: attrs}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func cssColor(c model.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
