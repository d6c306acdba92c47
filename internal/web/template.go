package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/panel-power/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"pct": func(v float64) string {
		return fmt.Sprintf("%.1f%%", v)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Panel Power</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Panel Power<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>Illumination</h2>
<table>
<tr><th>Primary</th><td id="primary">{{.Frame.Primary.Stage}} {{pct .Frame.Primary.Luminance}}</td></tr>
<tr><th>Rotary</th><td id="rotary">{{.Frame.Rotary.Stage}} {{pct .Frame.Rotary.Luminance}}</td></tr>
<tr><th>Rotary LEDs</th><td id="rotary-leds" class="{{if .Frame.RotaryIlluminationActive}}on{{else}}off{{end}}">{{if .Frame.RotaryIlluminationActive}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Display</th><td id="display" class="{{if .Frame.DisplayActive}}on{{else}}off{{end}}">{{if .Frame.DisplayActive}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Fully off</th><td id="fully-off">{{if .Frame.FullyOff}}yes{{else}}no{{end}}</td></tr>
<tr><th>Idle</th><td id="idle">{{.Frame.Elapsed}}ms</td></tr>
<tr><th>Inputs ready</th><td>{{if .InputsReady}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Interactions</h2>
<table>
<tr><th>Wakes</th><td id="wakes">{{.Counts.Wakes}}</td></tr>
<tr><th>Actions</th><td id="actions">{{.Counts.Actions}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Timing</th><td>awake {{.Config.Primary.AwakeMs}}ms, dimming {{.Config.Primary.DimmingMs}}ms, standby {{.Config.Primary.StandbyMs}}ms, disabling {{.Config.Primary.DisablingMs}}ms</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }
  function setFlag(id, on) {
    var el = document.getElementById(id);
    el.textContent = on ? "ON" : "OFF";
    el.className = on ? "on" : "off";
  }
  function track(t) {
    return t.stage + " " + t.luminance.toFixed(1) + "%";
  }
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var s = JSON.parse(ev.data).status;
        document.getElementById("primary").textContent = track(s.primary);
        document.getElementById("rotary").textContent = track(s.rotary);
        setFlag("rotary-leds", s.rotary_leds);
        setFlag("display", s.display_active);
        document.getElementById("fully-off").textContent = s.fully_off ? "yes" : "no";
        document.getElementById("idle").textContent = s.idle_ms + "ms";
        document.getElementById("wakes").textContent = s.interaction_counts.wakes;
        document.getElementById("actions").textContent = s.interaction_counts.actions;
      } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
