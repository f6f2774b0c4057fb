package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"strings"
	"time"

	"github.com/sweeney/lamp-bridge/internal/status"
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
	"lower": strings.ToLower,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Lamp Bridge</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.normal { color: green; }
.bypass { color: orange; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Lamp Bridge</h1>

<table>
<tr><th>Bulb</th><td class="{{lower .BulbStr}}">{{.BulbStr}}</td></tr>
<tr><th>Relay</th><td class="{{lower .RelayStr}}">{{.RelayStr}}</td></tr>
<tr><th>Mode</th><td class="{{lower .ModeStr}}">{{.ModeStr}}</td></tr>
<tr><th>Command pending</th><td>{{if .Snap.Pending}}yes{{else}}no{{end}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Snap.Uptime}}</td></tr>
</table>

<table>
<tr><th>MQTT broker</th><td>{{.Snap.Config.Broker}}</td></tr>
<tr><th>MQTT</th><td class="{{if .Snap.MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .Snap.MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Disconnects</th><td>{{.Snap.Disconnects}}</td></tr>
<tr><th>Button presses</th><td>{{.Snap.Counts.ButtonPresses}}</td></tr>
<tr><th>Command timeouts</th><td>{{.Snap.Counts.CommandTimeouts}}</td></tr>
<tr><th>Resyncs</th><td>{{.Snap.Counts.Resyncs}}</td></tr>
</table>

<table>
<tr><th>Command topic</th><td>{{.Snap.Config.CommandTopic}}</td></tr>
<tr><th>State topic</th><td>{{.Snap.Config.StateTopic}}</td></tr>
<tr><th>Poll</th><td>{{.Snap.Config.PollMs}} ms</td></tr>
<tr><th>Command timeout</th><td>{{.Snap.Config.CommandTimeoutMs}} ms</td></tr>
<tr><th>Settle delay</th><td>{{.Snap.Config.SettleMs}} ms</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

type templateData struct {
	Snap     status.Snapshot
	BulbStr  string
	RelayStr string
	ModeStr  string
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := templateData{
		Snap:     snap,
		BulbStr:  string(snap.Bulb),
		RelayStr: string(snap.Relay),
		ModeStr:  snap.Mode(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render template: %v", err)
	}
}
