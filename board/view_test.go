package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statusdash/status"
)

const scenarioDoc = `{"day": 3, "cash": 100, "JOBIN": [2, 3, 4], "S1Q": [0, 0, 0], "S2Q": [0, 0, 0], "S3Q": [0, 0, 0],
 "JOBOUT": [1, 2, 3], "JOBREV": [10, 10, 10], "JOBT": [1, 1, 1], "INV": [5, 5, 5], "INVORDER": "none"}`

func loadScenario(t *testing.T) *View {
	t.Helper()
	s, err := status.Decode([]byte(scenarioDoc))
	require.NoError(t, err)
	v := NewView(TrendAfter, 0)
	v.Load(s)
	return v
}

func TestViewScenarioTable(t *testing.T) {
	v := loadScenario(t)
	require.Equal(t, 3, v.Day())
	assert.Equal(t, "Day 3. Cash: 100", v.Title())

	tbl := v.Table()
	assert.Equal(t, []string{"Name", "Day 3", "Day 2", "Trend since Day 0"}, tbl.Headers)

	total, ok := tbl.Find(KeySystemTotal)
	require.True(t, ok)
	assert.Equal(t, "4", total.CurrentText())
	assert.Equal(t, "3", total.PreviousText())

	rev, ok := tbl.Find(KeyDayRevenue)
	require.True(t, ok)
	assert.Equal(t, "30", rev.CurrentText())
	assert.Equal(t, "20", rev.PreviousText())
	assert.Equal(t, []float64{20, 30}, rev.Trend)

	lead, ok := tbl.Find(status.SeriesJobT)
	require.True(t, ok)
	assert.Equal(t, "Day Leadtime", lead.Label)
}

func TestViewTableRowOrder(t *testing.T) {
	v := loadScenario(t)
	tbl := v.Table()

	var labels []string
	for _, r := range tbl.Rows {
		switch r.Kind {
		case RowMetric:
			labels = append(labels, r.Label)
		case RowInfo:
			labels = append(labels, r.Label+r.Info)
		case RowDivider:
			labels = append(labels, "--")
		}
	}
	assert.Equal(t, []string{
		"Total in system (Job IN and queues)",
		"Day Revenue",
		"Day Leadtime",
		"In INV",
		"Jobs Completed",
		"--",
		"Next INV:none",
		"--",
		"JOBIN", "INV", "S1Q", "S2Q", "S3Q", "JOBOUT", "JOBT", "JOBREV",
	}, labels)
}

func TestViewDayOneHasNoPreviousValue(t *testing.T) {
	v := loadScenario(t)
	v.SelectPrevious()
	v.SelectPrevious()
	require.Equal(t, 1, v.Day())
	assert.False(t, v.SelectPrevious())

	tbl := v.Table()
	assert.Equal(t, "Day 0", tbl.Headers[2])
	for _, r := range tbl.Metrics() {
		assert.Equal(t, Placeholder, r.PreviousText(), r.Label)
		assert.NotEqual(t, Placeholder, r.CurrentText(), r.Label)
	}
}

func TestViewWindowAppliesToEveryTrend(t *testing.T) {
	v := loadScenario(t)
	v.SetOffset(1)
	tbl := v.Table()
	assert.Equal(t, "Trend since Day 1", tbl.Headers[3])
	for _, r := range tbl.Metrics() {
		assert.Len(t, r.Trend, 1, r.Label)
	}

	v.SetOffset(10)
	assert.Equal(t, 2, v.Window().Offset(), "offset clamps below the selected day")
	for _, r := range v.Table().Metrics() {
		assert.Empty(t, r.Trend, r.Label)
	}
}

func TestViewSelectPreviousClampsOffset(t *testing.T) {
	v := loadScenario(t)
	v.SetOffset(2)
	v.SelectPrevious()
	assert.Equal(t, 1, v.Window().Offset())
	v.SelectNext()
	assert.Equal(t, 1, v.Window().Offset(), "moving forward keeps the offset")
}

func TestViewPopup(t *testing.T) {
	v := loadScenario(t)
	tbl := v.Table()
	assert.False(t, v.OpenPopup(tbl.Rows[5]), "divider rows have no popup")
	assert.False(t, v.Popup().IsOpen())

	rev, _ := tbl.Find(KeyDayRevenue)
	require.True(t, v.OpenPopup(rev))
	p := v.Popup()
	assert.True(t, p.IsOpen())
	assert.Equal(t, "Day Revenue", p.Label())
	lines := p.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, PopupLine{Day: 2, Value: 20, OK: true}, lines[0])
	assert.Equal(t, PopupLine{Day: 3, Value: 30, OK: true}, lines[1])

	v.ClosePopup()
	assert.False(t, v.Popup().IsOpen())
	assert.Nil(t, v.Popup().Lines())
}

func TestViewPopupFirst50Days(t *testing.T) {
	v := loadScenario(t)
	v.ToggleTrendMode()
	inv, ok := v.Table().Find(status.SeriesInv)
	require.True(t, ok)
	require.True(t, v.OpenPopup(inv))
	lines := v.Popup().Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, 1, lines[0].Day)
	assert.Equal(t, 3, lines[2].Day)
}

func TestViewReloadResetsDay(t *testing.T) {
	v := loadScenario(t)
	v.SelectPrevious()
	next, err := status.Decode([]byte(`{"day": 5, "cash": 1234.5}`))
	require.NoError(t, err)
	v.Load(next)
	assert.Equal(t, 5, v.Day())
	assert.Equal(t, "Day 5. Cash: 1,234.5", v.Title())
	tbl := v.Table()
	for _, r := range tbl.Metrics() {
		assert.Equal(t, Placeholder, r.CurrentText(), r.Label)
	}
}

func TestViewDetails(t *testing.T) {
	s, err := status.Decode([]byte(`{"day": 1, "Name": "Plant", "lead Time": "4"}`))
	require.NoError(t, err)
	v := NewView(TrendAfter, 0)
	assert.Nil(t, v.Details())
	assert.Equal(t, "", v.Title())
	v.Load(s)
	details := v.Details()
	assert.Equal(t, [2]string{"Name", "Plant"}, details[0])
	assert.Equal(t, [2]string{"Unit cost", Placeholder}, details[1])
	assert.Equal(t, [2]string{"Lead time", "4"}, details[3])
	assert.Equal(t, "Day 1. Cash: —", v.Title())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "4", FormatValue(4, true))
	assert.Equal(t, "1,234,567", FormatValue(1234567, true))
	assert.Equal(t, "0.86", FormatValue(0.856, true))
	assert.Equal(t, "0", FormatValue(-0.001, true))
	assert.Equal(t, Placeholder, FormatValue(4, false))
}

func TestViewLargeDayWithShortSeries(t *testing.T) {
	s, err := status.Decode([]byte(`{"day": 1000000, "cash": 1, "JOBIN": [1, 2], "S1Q": [0, 0], "S2Q": [0, 0], "S3Q": [0, 0],
		"JOBOUT": [1, 1], "JOBREV": [3, 3]}`))
	require.NoError(t, err)
	v := NewView(TrendAfter, 0)
	v.Load(s)

	var tbl Table
	require.NotPanics(t, func() { tbl = v.Table() })
	total, ok := tbl.Find(KeySystemTotal)
	require.True(t, ok)
	assert.Equal(t, []float64{2}, total.Trend, "days after day 1")
	assert.Equal(t, Placeholder, total.CurrentText())
}
