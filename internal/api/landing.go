package api

import "net/http"

const landingHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>docqa</title>
<style>
  *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #0f172a; color: #e2e8f0; min-height: 100vh; display: flex; align-items: center; justify-content: center; }
  .card { max-width: 640px; width: 90%; background: #1e293b; border-radius: 12px; padding: 2.5rem; }
  h1 { font-size: 1.75rem; margin-bottom: 0.5rem; color: #f8fafc; }
  .subtitle { color: #94a3b8; margin-bottom: 1.75rem; }
  .section { margin-bottom: 1.5rem; }
  .section-title { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.1em; color: #64748b; margin-bottom: 0.5rem; }
  pre { background: #0f172a; border: 1px solid #334155; border-radius: 8px; padding: 1rem; overflow-x: auto; font-size: 0.85rem; line-height: 1.5; }
  code, .endpoint { font-family: "SF Mono", "Fira Code", Menlo, monospace; }
  .endpoint { font-size: 0.9rem; color: #a5b4fc; }
  a { color: #38bdf8; text-decoration: none; }
</style>
</head>
<body>
<div class="card">
  <h1>docqa</h1>
  <p class="subtitle">Upload a document, then ask questions answered from its pages with citations.</p>

  <div class="section">
    <div class="section-title">Upload</div>
    <pre><code>curl -F file=@manual.pdf http://localhost:8080/build_chatbot</code></pre>
  </div>

  <div class="section">
    <div class="section-title">Ask</div>
    <pre><code>curl -d '{"question":"¿De qué trata el documento?"}' http://localhost:8080/ask_chatbot/&lt;job_id&gt;</code></pre>
  </div>

  <div class="section">
    <div class="section-title">Endpoints</div>
    <p><span class="endpoint">POST /build_chatbot</span></p>
    <p><span class="endpoint">GET /chatbot_status/{job_id}</span></p>
    <p><span class="endpoint">POST /ask_chatbot/{job_id}</span></p>
    <p><a href="/health" class="endpoint">/health</a> &middot; <a href="/metrics" class="endpoint">/metrics</a> &middot; <span class="endpoint">/mcp</span></p>
  </div>
</div>
</body>
</html>`

func handleLanding(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(landingHTML))
}
