package preview

const viewerHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>volray preview</title>
<style>
body { background: #000; color: #ccc; font-family: monospace; }
img { image-rendering: pixelated; width: 512px; }
</style>
</head>
<body>
<img id="frame" alt="frame">
<div id="status">connecting</div>
<script>
const ws = new WebSocket("ws://" + location.host + "/ws");
const img = document.getElementById("frame");
const status = document.getElementById("status");
ws.onmessage = (ev) => {
  const msg = JSON.parse(ev.data);
  if (msg.type !== "frame") return;
  img.src = "data:image/png;base64," + msg.png;
  status.textContent = "step " + msg.step.toFixed(5) + "  " + msg.source + "  #" + msg.seq;
};
ws.onclose = () => { status.textContent = "disconnected"; };
const send = (key, down) => {
  if (ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify({type: "key", key: key, down: down}));
};
document.addEventListener("keydown", (e) => { if (!e.repeat) send(e.key, true); });
document.addEventListener("keyup", (e) => send(e.key, false));
</script>
</body>
</html>
`
