package canvas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ConcealedGem/versa-chat-view/internal/canvas"
)

func TestRegistry_Add(t *testing.T) {
	t.Run("Creates item with unique id and notifies", func(t *testing.T) {
		reg := canvas.NewRegistry(nil)
		var notified []canvas.Item
		reg.Subscribe(func(item canvas.Item) { notified = append(notified, item) })

		first, ok := reg.Add(canvas.TypeHTML, "<p>hi</p>")
		require.True(t, ok)
		second, ok := reg.Add(canvas.TypeMarkdown, "# title")
		require.True(t, ok)

		assert.NotEqual(t, first.ID, second.ID)
		assert.False(t, first.Collapsed)
		assert.False(t, first.Timestamp.IsZero())
		assert.Equal(t, []canvas.Item{first, second}, reg.GetAll())
		assert.Equal(t, []canvas.Item{first, second}, notified)
	})

	t.Run("Status payload goes to tool-status listeners only", func(t *testing.T) {
		reg := canvas.NewRegistry(nil)
		var itemNotifications int
		var statuses []canvas.ToolStatus
		reg.Subscribe(func(canvas.Item) { itemNotifications++ })
		reg.SubscribeToolStatus(func(s canvas.ToolStatus) { statuses = append(statuses, s) })

		_, ok := reg.Add(canvas.TypeStatus, `{"toolName":"search","status":"active"}`)

		assert.False(t, ok)
		assert.Equal(t, 0, reg.Len())
		assert.Equal(t, 0, itemNotifications)
		assert.Equal(t, []canvas.ToolStatus{{ToolName: "search", Status: "active"}}, statuses)
	})

	t.Run("Malformed status payload is dropped", func(t *testing.T) {
		reg := canvas.NewRegistry(nil)
		calls := 0
		reg.SubscribeToolStatus(func(canvas.ToolStatus) { calls++ })

		_, ok := reg.Add(canvas.TypeStatus, `{not json`)
		assert.False(t, ok)
		_, ok = reg.Add(canvas.TypeStatus, `{"toolName":"search"}`)
		assert.False(t, ok)

		assert.Equal(t, 0, calls)
		assert.Equal(t, 0, reg.Len())
	})

	t.Run("Reserved remove-signal type is rejected", func(t *testing.T) {
		reg := canvas.NewRegistry(nil)
		_, ok := reg.Add(canvas.TypeRemoveSignal, "x")
		assert.False(t, ok)
		assert.Equal(t, 0, reg.Len())
	})
}

func TestRegistry_PutReplacesExistingID(t *testing.T) {
	reg := canvas.NewRegistry(nil)
	original, _ := reg.Add(canvas.TypeHTML, "<p>old</p>")
	other, _ := reg.Add(canvas.TypeHTML, "<p>other</p>")

	replacement := original
	replacement.Source = "<p>new</p>"
	reg.Put(replacement)

	items := reg.GetAll()
	require.Len(t, items, 2)
	assert.Equal(t, original.ID, items[0].ID)
	assert.Equal(t, "<p>new</p>", items[0].Source)
	assert.Equal(t, other, items[1])
}

func TestRegistry_AddFilePreview(t *testing.T) {
	reg := canvas.NewRegistry(nil)

	item := reg.AddFilePreview("report.pdf", "/files/report.pdf", canvas.FilePDF, 0)

	assert.Equal(t, canvas.TypeFilePreview, item.Type)
	assert.Equal(t, "report.pdf", item.FileName)
	assert.Equal(t, canvas.FilePDF, item.FileType)
	assert.Equal(t, 1, item.TotalPages)
	assert.Equal(t, 1, item.CurrentPage)
	assert.False(t, item.Collapsed)
	assert.Contains(t, item.ID, "file-preview-")
}

func TestRegistry_Remove(t *testing.T) {
	reg := canvas.NewRegistry(nil)
	keep, _ := reg.Add(canvas.TypeHTML, "keep")
	drop, _ := reg.Add(canvas.TypeHTML, "drop")

	var signals []canvas.Item
	reg.Subscribe(func(item canvas.Item) {
		if item.IsRemoveSignal() {
			signals = append(signals, item)
		}
	})

	assert.True(t, reg.Remove(drop.ID))
	assert.False(t, reg.Remove(drop.ID), "second remove finds nothing")

	assert.Equal(t, []canvas.Item{keep}, reg.GetAll())
	require.Len(t, signals, 1)
	assert.Equal(t, drop.ID, signals[0].ID)
	assert.Empty(t, signals[0].Source)
}

func TestRegistry_Toggle(t *testing.T) {
	reg := canvas.NewRegistry(nil)
	item, _ := reg.Add(canvas.TypeMarkdown, "text")

	var notified []canvas.Item
	reg.Subscribe(func(i canvas.Item) { notified = append(notified, i) })

	toggled, ok := reg.Toggle(item.ID)
	require.True(t, ok)
	assert.True(t, toggled.Collapsed)

	stored, _ := reg.Get(item.ID)
	assert.True(t, stored.Collapsed)

	toggled, _ = reg.Toggle(item.ID)
	assert.False(t, toggled.Collapsed)
	assert.Len(t, notified, 2)

	_, ok = reg.Toggle("missing")
	assert.False(t, ok)
}

func TestRegistry_GetAllReturnsCopy(t *testing.T) {
	reg := canvas.NewRegistry(nil)
	reg.Add(canvas.TypeHTML, "a")

	items := reg.GetAll()
	items[0].Source = "mutated"

	fresh := reg.GetAll()
	assert.Equal(t, "a", fresh[0].Source)
}

func TestRegistry_ClearDoesNotNotify(t *testing.T) {
	reg := canvas.NewRegistry(nil)
	reg.Add(canvas.TypeHTML, "a")
	reg.Add(canvas.TypeHTML, "b")

	calls := 0
	reg.Subscribe(func(canvas.Item) { calls++ })
	reg.Clear()

	assert.Empty(t, reg.GetAll())
	assert.Equal(t, 0, calls)
}

func TestRegistry_ListenerPanicDoesNotStopDelivery(t *testing.T) {
	reg := canvas.NewRegistry(nil)
	reg.Subscribe(func(canvas.Item) { panic("listener failure") })
	delivered := false
	reg.Subscribe(func(canvas.Item) { delivered = true })

	assert.NotPanics(t, func() { reg.Add(canvas.TypeHTML, "x") })
	assert.True(t, delivered)
}

func TestFileTypeFromName(t *testing.T) {
	cases := map[string]canvas.FileType{
		"a.pdf":     canvas.FilePDF,
		"b.XLSX":    canvas.FileExcel,
		"c.xls":     canvas.FileExcel,
		"d.docx":    canvas.FileWord,
		"e.doc":     canvas.FileWord,
		"f.txt":     canvas.FileText,
		"g.md":      canvas.FileMarkdown,
		"h.html":    canvas.FileHTML,
		"dir/i.htm": canvas.FileHTML,
	}
	for name, want := range cases {
		got, ok := canvas.FileTypeFromName(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := canvas.FileTypeFromName("archive.zip")
	assert.False(t, ok)
}
