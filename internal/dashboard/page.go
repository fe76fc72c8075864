package dashboard

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MattB543/ea-forum-clusters/internal/artifact"
)

// pageTemplate is the server-rendered dashboard. Proportional bars are
// plain CSS widths scaled to each column's maximum within the level.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>EA Forum Cluster Dashboard</title>
<style>
    :root { --accent: #1f77b4; --accent2: #ff7f0e; --bg: #fafafa; --ink: #1a1a1a; --muted: #777; --seam: #e0e0e0; }
    body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; background: var(--bg); color: var(--ink); margin: 0; padding: 24px; }
    h1 { margin: 0 0 4px; font-size: 24px; }
    .caption { color: var(--muted); margin-bottom: 24px; }
    .cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(160px, 1fr)); gap: 12px; margin-bottom: 24px; }
    .card { background: #fff; border: 1px solid var(--seam); border-radius: 6px; padding: 14px 16px; }
    .card .label { font-size: 12px; color: var(--muted); text-transform: uppercase; letter-spacing: .04em; }
    .card .value { font-size: 22px; font-weight: 600; margin-top: 4px; }
    .card .delta { font-size: 12px; color: var(--muted); }
    .panel { background: #fff; border: 1px solid var(--seam); border-radius: 6px; padding: 16px; margin-bottom: 28px; }
    .panel h2 { margin: 0 0 12px; font-size: 18px; }
    .compare { display: flex; gap: 24px; align-items: flex-end; height: 120px; margin: 8px 0 4px; }
    .compare .col { flex: 0 0 120px; text-align: center; }
    .compare .bar { background: var(--accent); border-radius: 3px 3px 0 0; }
    .compare .col:last-child .bar { background: var(--accent2); }
    .charts { display: grid; grid-template-columns: 1fr 1fr; gap: 24px; margin-bottom: 16px; }
    .chart .row { display: grid; grid-template-columns: 220px 1fr 60px; gap: 8px; align-items: center; font-size: 13px; margin: 3px 0; }
    .chart .name { overflow: hidden; text-overflow: ellipsis; white-space: nowrap; }
    .chart .track { background: #f0f0f0; border-radius: 3px; height: 16px; }
    .chart .fill { height: 16px; border-radius: 3px; background: var(--accent2); }
    .chart.base .fill { background: var(--accent); }
    table { border-collapse: collapse; width: 100%; font-size: 13px; }
    th, td { text-align: left; padding: 6px 10px; border-bottom: 1px solid var(--seam); }
    th { color: var(--muted); font-weight: 600; }
    td.num { font-variant-numeric: tabular-nums; }
    .cell { position: relative; }
    .cell .indicator { position: absolute; left: 0; top: 10%; bottom: 10%; background: rgba(31, 119, 180, 0.15); border-radius: 2px; z-index: 0; }
    .cell span { position: relative; z-index: 1; }
    .actions { margin-top: 12px; font-size: 13px; }
    .actions a { color: var(--accent); margin-right: 16px; }
    .posts { margin-top: 12px; display: none; }
    .posts.open { display: block; }
    .note { color: var(--muted); font-size: 13px; }
    select { font-size: 13px; }
</style>
</head>
<body>
<h1>EA Forum Cluster Dashboard</h1>
<div class="caption">Clean, readable view of clusters and score statistics — generated {{.GeneratedAt}}</div>

<div class="cards">
    <div class="card"><div class="label">Total Posts</div><div class="value">{{.Overview.TotalPosts}}</div></div>
    <div class="card"><div class="label">EA Meta</div><div class="value">{{.Overview.MetaPosts}}</div><div class="delta">{{printf "%.1f" .Overview.MetaShare}}%</div></div>
    <div class="card"><div class="label">EA Proper</div><div class="value">{{.Overview.ProperPosts}}</div><div class="delta">{{printf "%.1f" .Overview.ProperShare}}%</div></div>
    <div class="card"><div class="label">Avg Base (±Std)</div><div class="value">{{.Overview.AvgBase}}</div><div class="delta">±{{.Overview.StdBase}}</div></div>
    <div class="card"><div class="label">Avg Score (±Std)</div><div class="value">{{.Overview.AvgScore}}</div><div class="delta">±{{.Overview.StdScore}}</div></div>
</div>

<div class="panel">
    <h2>EA Meta vs EA Proper</h2>
    <div class="compare">
        <div class="col"><div class="bar" style="height: {{.Overview.MetaBarPct}}%"></div>EA Meta ({{.Overview.MetaPosts}})</div>
        <div class="col"><div class="bar" style="height: {{.Overview.ProperBarPct}}%"></div>EA Proper ({{.Overview.ProperPosts}})</div>
    </div>
</div>

{{range .Levels}}
<div class="panel">
    <h2>{{.Level}} Clusters</h2>
    <div class="charts">
        <div class="chart posts-chart">
            <h3>Posts by Cluster</h3>
            {{range .Rows}}<div class="row"><div class="name" title="{{.Name}}">{{.Name}}</div><div class="track"><div class="fill" style="width: {{.PostBarPct}}%"></div></div><div>{{.PostCount}}</div></div>
            {{end}}
        </div>
        <div class="chart base">
            <h3>Avg Base Score by Cluster</h3>
            {{range .Rows}}<div class="row"><div class="name" title="{{.Name}}">{{.Name}}</div><div class="track"><div class="fill" style="width: {{.AvgBaseBarPct}}%"></div></div><div>{{.AvgBase}}</div></div>
            {{end}}
        </div>
    </div>
    <table>
        <thead><tr><th>Cluster</th><th>Posts</th><th>Avg Base Score</th><th>Std Base</th><th>Avg Score</th><th>Std Score</th><th></th></tr></thead>
        <tbody>
        {{$level := .Level}}
        {{range .Rows}}
        <tr>
            <td>{{.Name}}</td>
            <td class="num cell"><div class="indicator" style="width: {{.PostBarPct}}%"></div><span>{{.PostCount}}</span></td>
            <td class="num cell"><div class="indicator" style="width: {{.AvgBaseBarPct}}%"></div><span>{{.AvgBase}}</span></td>
            <td class="num cell"><div class="indicator" style="width: {{.StdBaseBarPct}}%"></div><span>{{.StdBase}}</span></td>
            <td class="num cell"><div class="indicator" style="width: {{.AvgScoreBarPct}}%"></div><span>{{.AvgScore}}</span></td>
            <td class="num cell"><div class="indicator" style="width: {{.StdScoreBarPct}}%"></div><span>{{.StdScore}}</span></td>
            <td><a href="#" onclick="return showPosts({{$level}}, {{.ClusterID}}, this)">posts</a></td>
        </tr>
        {{end}}
        </tbody>
    </table>
    <div class="actions">
        <a href="/api/levels/{{.Level}}/export.csv">Download CSV (Level {{.Level}})</a>
        <label>Sort posts by <select id="sort-{{.Level}}"><option value="score">Score (desc)</option><option value="date">Date (newest)</option></select></label>
    </div>
    <div class="posts" id="posts-{{.Level}}"></div>
</div>
{{end}}

<script>
function showPosts(level, clusterId, link) {
    var sort = document.getElementById('sort-' + level).value;
    var box = document.getElementById('posts-' + level);
    box.className = 'posts open';
    box.innerHTML = '<div class="note">Loading posts…</div>';
    fetch('/api/levels/' + level + '/clusters/' + clusterId + '/posts?sort=' + sort)
        .then(function (r) { return r.json(); })
        .then(function (data) {
            if (!data.posts || data.posts.length === 0) {
                box.innerHTML = '<div class="note">' + (data.message || 'No posts found.') + '</div>';
                return;
            }
            var html = '<table><thead><tr><th>Posted</th><th>Title</th><th>Author</th><th>Base Score</th><th>Score</th></tr></thead><tbody>';
            data.posts.forEach(function (p) {
                var posted = p.posted_at ? p.posted_at.slice(0, 10) : '';
                var base = p.base_score == null ? 'N/A' : Math.round(p.base_score);
                var score = p.score == null ? 'N/A' : p.score.toFixed(2);
                html += '<tr><td>' + posted + '</td><td>' + escapeHTML(p.title) + '</td><td>' +
                    escapeHTML(p.author_display_name) + '</td><td class="num">' + base + '</td><td class="num">' + score + '</td></tr>';
            });
            box.innerHTML = html + '</tbody></table>';
        })
        .catch(function () {
            box.innerHTML = '<div class="note">Failed to load posts.</div>';
        });
    return false;
}
function escapeHTML(s) {
    var div = document.createElement('div');
    div.appendChild(document.createTextNode(s || ''));
    return div.innerHTML;
}
</script>
</body>
</html>`

// errorTemplate is the blocking page shown when the artifacts are absent.
const errorTemplate = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>EA Forum Cluster Dashboard</title>
<style>
    body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; background: #fafafa; margin: 0; padding: 48px; }
    .box { max-width: 640px; margin: 0 auto; background: #fff3f3; border: 1px solid #e0b4b4; border-radius: 6px; padding: 24px; }
    h1 { font-size: 20px; margin: 0 0 12px; }
    code { background: #f0f0f0; padding: 2px 5px; border-radius: 3px; }
</style>
</head>
<body>
<div class="box">
    <h1>Summary artifacts not found</h1>
    <p>{{.Message}}</p>
    <p>Run <code>summarize</code> first to generate them, then reload this page.</p>
</div>
</body>
</html>`

type overviewView struct {
	TotalPosts   int
	MetaPosts    int
	ProperPosts  int
	MetaShare    float64
	ProperShare  float64
	MetaBarPct   float64
	ProperBarPct float64
	AvgBase      string
	StdBase      string
	AvgScore     string
	StdScore     string
}

type rowView struct {
	ClusterID      int
	Name           string
	PostCount      int
	PostBarPct     float64
	AvgBase        string
	AvgBaseBarPct  float64
	StdBase        string
	StdBaseBarPct  float64
	AvgScore       string
	AvgScoreBarPct float64
	StdScore       string
	StdScoreBarPct float64
}

type levelView struct {
	Level int
	Rows  []rowView
}

var (
	parsedPage  = template.Must(template.New("dashboard").Parse(pageTemplate))
	parsedError = template.Must(template.New("error").Parse(errorTemplate))
)

// GetPage renders the full dashboard. Missing artifacts render a blocking
// explanatory page rather than an error trace.
func (h *Handlers) GetPage(c *gin.Context) {
	levels, _, err := h.store.Snapshot()
	if err != nil {
		if errors.Is(err, artifact.ErrMissing) {
			h.renderArtifactMissing(c, err)
			return
		}
		h.logger.WithError(err).Error("Failed to load summary artifacts")
		c.String(http.StatusInternalServerError, "Failed to load summary artifacts")
		return
	}

	data := struct {
		GeneratedAt string
		Overview    overviewView
		Levels      []levelView
	}{
		GeneratedAt: artifactTimestamp(h.store),
		Overview:    buildOverviewView(BuildOverview(levels)),
	}

	for _, l := range levels {
		clusters, err := h.store.ClustersForLevel(l.Level)
		if err != nil {
			continue
		}
		rows, maxes := BuildTable(clusters)
		data.Levels = append(data.Levels, levelView{Level: l.Level, Rows: buildRowViews(rows, maxes)})
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := parsedPage.Execute(c.Writer, data); err != nil {
		h.logger.WithError(err).Error("Failed to execute dashboard template")
	}
}

func (h *Handlers) renderArtifactMissing(c *gin.Context, err error) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusServiceUnavailable)
	_ = parsedError.Execute(c.Writer, struct{ Message string }{Message: err.Error()})
}

func buildOverviewView(o Overview) overviewView {
	v := overviewView{
		TotalPosts:  o.TotalPosts,
		MetaPosts:   o.MetaPosts,
		ProperPosts: o.ProperPosts,
		MetaShare:   o.MetaShare,
		ProperShare: o.ProperShare,
		AvgBase:     displayFloat(o.AvgBaseScore, 2),
		StdBase:     displayFloat(o.StddevBaseScore, 2),
		AvgScore:    displayFloat(o.AvgScore, 2),
		StdScore:    displayFloat(o.StddevScore, 2),
	}
	maxPosts := o.MetaPosts
	if o.ProperPosts > maxPosts {
		maxPosts = o.ProperPosts
	}
	if maxPosts > 0 {
		v.MetaBarPct = float64(o.MetaPosts) / float64(maxPosts) * 100.0
		v.ProperBarPct = float64(o.ProperPosts) / float64(maxPosts) * 100.0
	}
	return v
}

func buildRowViews(rows []TableRow, maxes TableMax) []rowView {
	views := make([]rowView, 0, len(rows))
	for _, r := range rows {
		v := rowView{
			ClusterID: r.ClusterID,
			Name:      r.ClusterName,
			PostCount: r.PostCount,
			AvgBase:   displayInt(r.AvgBaseScore),
			StdBase:   displayInt(r.StddevBaseScore),
			AvgScore:  displayFloat(r.AvgScore, 2),
			StdScore:  displayFloat(r.StddevScore, 2),
		}
		if maxes.PostCount > 0 {
			v.PostBarPct = float64(r.PostCount) / float64(maxes.PostCount) * 100.0
		}
		if r.AvgBaseScore != nil && maxes.AvgBaseScore > 0 {
			v.AvgBaseBarPct = clampPct(float64(*r.AvgBaseScore) / float64(maxes.AvgBaseScore) * 100.0)
		}
		if r.StddevBaseScore != nil && maxes.StddevBaseScore > 0 {
			v.StdBaseBarPct = clampPct(float64(*r.StddevBaseScore) / float64(maxes.StddevBaseScore) * 100.0)
		}
		if r.AvgScore != nil && maxes.AvgScore > 0 {
			v.AvgScoreBarPct = clampPct(*r.AvgScore / maxes.AvgScore * 100.0)
		}
		if r.StddevScore != nil && maxes.StddevScore > 0 {
			v.StdScoreBarPct = clampPct(*r.StddevScore / maxes.StddevScore * 100.0)
		}
		views = append(views, v)
	}
	return views
}

// clampPct bounds an indicator width; negative statistics render as empty
// rather than overflowing.
func clampPct(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func artifactTimestamp(s *Store) string {
	mod := modTime(s.levelPath)
	if mod.IsZero() {
		return "unknown"
	}
	return mod.Format("2006-01-02 15:04 MST")
}
