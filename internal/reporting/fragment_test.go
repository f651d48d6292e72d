package reporting

import (
	"bytes"
	"natbwdash/internal/models"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type cell struct {
	text  string
	href  string
	class string
}

// parseRows parses a rendered fragment and returns its rows as cells.
func parseRows(t *testing.T, fragment []byte) [][]cell {
	t.Helper()
	ctx := &html.Node{Type: html.ElementNode, Data: "table", DataAtom: atom.Table}
	nodes, err := html.ParseFragment(bytes.NewReader(fragment), ctx)
	require.NoError(t, err)

	var rows [][]cell
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			var row []cell
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode {
					continue
				}
				row = append(row, cell{
					text:  textOf(c),
					href:  hrefOf(c),
					class: attr(c, "class"),
				})
			}
			rows = append(rows, row)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return rows
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.TrimSpace(sb.String())
}

func hrefOf(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.A {
		return attr(n, "href")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if h := hrefOf(c); h != "" {
			return h
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func render(t *testing.T, snap models.Snapshot, active models.OrderKey, layout Layout) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RenderFragment(&buf, BuildTable(snap, active, layout)))
	return buf.Bytes()
}

func TestRenderFragmentEmpty(t *testing.T) {
	rows := parseRows(t, render(t, models.Snapshot{Seq: 1}, models.OrderByIP, DefaultLayout()))
	require.Len(t, rows, 1)

	var titles []string
	for _, c := range rows[0] {
		titles = append(titles, c.text)
	}
	assert.Equal(t, []string{"IP", "Hostname", "IN rate", "OUT rate", "MAC", "Manufacturer"}, titles)
}

func TestRenderFragmentRow(t *testing.T) {
	snap := models.Snapshot{Seq: 1, Stats: models.Stats{{
		IP:           "10.0.0.5",
		Name:         "printer",
		InRate:       2048,
		OutRate:      0,
		HWAddr:       "AA:BB:CC:DD:EE:FF",
		Manufacturer: "Acme",
	}}}
	rows := parseRows(t, render(t, snap, models.OrderByIP, DefaultLayout()))
	require.Len(t, rows, 2)

	row := rows[1]
	require.Len(t, row, 6)
	assert.Equal(t, cell{text: "10.0.0.5", href: "/conntrack?ip=10.0.0.5"}, row[0])
	assert.Equal(t, "printer", row[1].text)
	assert.Equal(t, cell{text: "2 KB/s", class: "success"}, row[2])
	assert.Equal(t, cell{text: "", class: "failed"}, row[3])
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", row[4].text)
	assert.Equal(t, "https://hwaddress.com/?q=AA%3ABB%3ACC", row[4].href)
	assert.Equal(t, "Acme", row[5].text)
}

func TestRenderFragmentKeepsOrder(t *testing.T) {
	snap := models.Snapshot{Seq: 1, Stats: models.Stats{
		{IP: "10.0.0.9"}, {IP: "10.0.0.1"}, {IP: "10.0.0.5"},
	}}
	rows := parseRows(t, render(t, snap, models.OrderByInRate, DefaultLayout()))
	require.Len(t, rows, 4)
	assert.Equal(t, "10.0.0.9", rows[1][0].text)
	assert.Equal(t, "10.0.0.1", rows[2][0].text)
	assert.Equal(t, "10.0.0.5", rows[3][0].text)
}

func TestRenderFragmentEscapes(t *testing.T) {
	snap := models.Snapshot{Seq: 1, Stats: models.Stats{{
		IP:     `"><script>alert(1)</script>`,
		Name:   `<img src=x onerror=alert(1)>`,
		HWAddr: `<b>`,
	}}}
	out := render(t, snap, models.OrderByIP, DefaultLayout())
	assert.NotContains(t, string(out), "<script>")
	assert.NotContains(t, string(out), "<img")

	rows := parseRows(t, out)
	require.Len(t, rows, 2)
	assert.Equal(t, `"><script>alert(1)</script>`, rows[1][0].text)
	assert.Equal(t, `<img src=x onerror=alert(1)>`, rows[1][1].text)
	assert.True(t, strings.HasPrefix(rows[1][0].href, "/conntrack?ip=%22%3E%3Cscript"))
}

func TestRenderFragmentHeaderButtons(t *testing.T) {
	out := string(render(t, models.Snapshot{Seq: 7}, models.OrderByOutRate, DefaultLayout()))
	for _, key := range models.OrderKeys {
		assert.Contains(t, out, `data-order-by="`+string(key)+`"`)
	}
	assert.Contains(t, out, `data-order-by="rate_out" class="active"`)
	assert.Contains(t, out, `data-seq="7"`)
	assert.NotContains(t, out, "onclick")
}

func TestRenderFragmentWithoutManufacturer(t *testing.T) {
	layout := DefaultLayout()
	layout.Manufacturer = false
	layout.VendorLinks = false
	snap := models.Snapshot{Seq: 1, Stats: models.Stats{{IP: "10.0.0.1", HWAddr: "aa:bb:cc:dd:ee:ff", Manufacturer: "Acme"}}}

	rows := parseRows(t, render(t, snap, models.OrderByIP, layout))
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 5)
	assert.Len(t, rows[1], 5)
	assert.Equal(t, cell{text: "aa:bb:cc:dd:ee:ff"}, rows[1][4])
}

func TestVendorURLEmptyHWAddr(t *testing.T) {
	assert.Equal(t, DefaultVendorURL, VendorURL("", ""))
	assert.Equal(t, "https://example.com/oui/aa%3Abb%3Acc", VendorURL("https://example.com/oui/", "aa:bb:cc:dd:ee:ff"))
}

func TestConntrackURL(t *testing.T) {
	assert.Equal(t, "/conntrack?ip=10.0.0.5", ConntrackURL("", "10.0.0.5"))
	assert.Equal(t, "http://gw:8833/conntrack?ip=fe80%3A%3A1", ConntrackURL("http://gw:8833", "fe80::1"))
}

func TestContainerRender(t *testing.T) {
	c := NewContainer("hosts", DefaultLayout())
	assert.Nil(t, c.HTML())

	snap := models.Snapshot{Seq: 3, Stats: models.Stats{{IP: "10.0.0.1"}}}
	require.NoError(t, c.Render(snap, models.OrderByIP))
	assert.Equal(t, uint64(3), c.Seq())
	assert.Len(t, parseRows(t, c.HTML()), 2)

	// full replace
	require.NoError(t, c.Render(models.Snapshot{Seq: 4}, models.OrderByIP))
	assert.Len(t, parseRows(t, c.HTML()), 1)
}

func TestContainerKeepsNewer(t *testing.T) {
	c := NewContainer("hosts", DefaultLayout())
	newer := models.Snapshot{Seq: 2, Stats: models.Stats{{IP: "10.0.0.2"}}}
	older := models.Snapshot{Seq: 1, Stats: models.Stats{{IP: "10.0.0.1"}}}

	html, applied, err := c.Update(newer, models.OrderByIP)
	require.NoError(t, err)
	assert.True(t, applied)
	want := string(html)

	html, applied, err = c.Update(older, models.OrderByIP)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, want, string(html))
	assert.Equal(t, want, string(c.HTML()))
	assert.Equal(t, uint64(2), c.Seq())

	require.NoError(t, c.Render(older, models.OrderByIP))
	assert.Contains(t, string(c.HTML()), "10.0.0.2")
	assert.NotContains(t, string(c.HTML()), "10.0.0.1")
}

func TestNilContainer(t *testing.T) {
	var c *Container
	assert.ErrorIs(t, c.Render(models.Snapshot{Seq: 1}, models.OrderByIP), ErrNoContainer)
}

func TestWriteReport(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "report.html")
	snap := models.Snapshot{
		Seq:     1,
		OrderBy: models.OrderByName,
		Stats: models.Stats{
			{IP: "192.168.1.10", Name: "example", InRate: 1024, OutRate: 512},
		},
	}

	got, err := WriteReport(filename, "http://gw:8833", snap, DefaultLayout())
	require.NoError(t, err)
	assert.Equal(t, filename, got)

	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	page := string(content)
	assert.Contains(t, page, "natbwdash host report")
	assert.Contains(t, page, "192.168.1.10")
	assert.Contains(t, page, "1 KB/s")
	assert.Contains(t, page, "512 B/s")
	assert.Contains(t, page, `data-order-by="name" class="active"`)
}
