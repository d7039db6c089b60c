package pages

import (
	"context"
	"fmt"
	"io"
	"strconv"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"

	"github.com/cristianadrielbraun/qrstyle/web/components"
)

const (
	bodyClass   = "bg-gray-50 text-gray-900"
	formClass   = "flex flex-col gap-3"
	buttonClass = "rounded-md bg-gray-800 px-4 py-2 text-white"
	inputClass  = "block w-full rounded-md border border-gray-300 px-3 py-2 text-sm"
	labelClass  = "flex flex-col gap-1 text-sm font-medium text-gray-700"
	checkClass  = "flex flex-row items-center gap-2 text-sm font-medium text-gray-700"
)

// HomePage renders the QR form. Submitting it posts the options as JSON and
// shows the returned data URI inline.
func HomePage(d components.FormDefaults) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var err error
		write := func(format string, args ...any) {
			if err == nil {
				_, err = fmt.Fprintf(w, format, args...)
			}
		}

		write(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		write(`<meta name="viewport" content="width=device-width, initial-scale=1"><title>QR generator</title>`)
		if d.Style.Stylesheet != "" {
			write(`<link rel="stylesheet" href="%s">`, templ.EscapeString(d.Style.Stylesheet))
		}
		write(`</head>`)
		write(`<body class="%s"><main class="mx-auto max-w-xl p-6">`, mergeClass(bodyClass, d.Style.BodyClass))
		write(`<h1 class="mb-4 text-2xl font-semibold">QR generator</h1>`)
		write(`<form id="qrForm" class="%s" data-endpoint="%s">`,
			mergeClass(formClass, d.Style.FormClass), templ.EscapeString(d.Endpoint))

		textInput(write, "data", "Data", "text", d.Data)
		checkbox(write, "inverted", "Inverted", false)
		textInput(write, "blockSize", "Block size", "number", strconv.Itoa(d.BlockSize))
		textInput(write, "radius", "Radius (%)", "number", formatNumber(d.Radius))
		textInput(write, "foregroundColor", "Foreground", "color", d.ForegroundColor)
		textInput(write, "backgroundColor", "Background", "color", d.BackgroundColor)
		checkbox(write, "addImage", "Add image", d.AddImage)
		textInput(write, "image", "Image URL", "url", d.Image)
		textInput(write, "imageSize", "Image size (%)", "number", formatNumber(d.ImageSize))
		textInput(write, "imageMargin", "Image margin (px)", "number", strconv.Itoa(d.ImageMargin))
		selectInput(write, "errorCorrectionLevel", "Error correction", d.Level, []string{"L", "M", "Q", "H"})
		selectInput(write, "format", "Format", d.Format, []string{"png", "jpg", "svg"})

		write(`<button type="submit" class="%s">Generate</button>`, mergeClass(buttonClass, d.Style.ButtonClass))
		write(`</form>`)
		write(`<img id="qrImage" class="mt-6 hidden" alt="QR code"><div id="qrSvg" class="mt-6 hidden"></div>`)
		write(`<script>%s</script></main></body></html>`, formScript)
		return err
	})
}

// mergeClass applies extra over base, dropping base utilities that extra overrides.
func mergeClass(base, extra string) string {
	if extra == "" {
		return base
	}
	return templ.EscapeString(twmerge.Merge(base, extra))
}

type writeFunc func(format string, args ...any)

func textInput(write writeFunc, name, label, typ, value string) {
	write(`<label class="%s">%s<input class="%s" type="%s" name="%s" value="%s"></label>`,
		labelClass, templ.EscapeString(label), inputClass, typ, name, templ.EscapeString(value))
}

func checkbox(write writeFunc, name, label string, checked bool) {
	attr := ""
	if checked {
		attr = " checked"
	}
	write(`<label class="%s"><input type="checkbox" name="%s"%s>%s</label>`,
		checkClass, name, attr, templ.EscapeString(label))
}

func selectInput(write writeFunc, name, label, selected string, options []string) {
	write(`<label class="%s">%s<select class="%s" name="%s">`, labelClass, templ.EscapeString(label), inputClass, name)
	for _, o := range options {
		attr := ""
		if o == selected {
			attr = " selected"
		}
		write(`<option value="%s"%s>%s</option>`, o, attr, o)
	}
	write(`</select></label>`)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

const formScript = `
document.getElementById('qrForm').addEventListener('submit', async function (e) {
  e.preventDefault();
  const form = e.target;
  const body = {
    data: form.data.value,
    inverted: form.inverted.checked,
    blockSize: parseInt(form.blockSize.value, 10) || 0,
    radius: parseFloat(form.radius.value) || 0,
    foregroundColor: form.foregroundColor.value,
    backgroundColor: form.backgroundColor.value,
    addImage: form.addImage.checked,
    image: form.image.value,
    imageSize: parseFloat(form.imageSize.value) || 0,
    imageMargin: parseInt(form.imageMargin.value, 10) || 0,
    errorCorrectionLevel: form.errorCorrectionLevel.value,
    format: form.format.value
  };
  const img = document.getElementById('qrImage');
  const svg = document.getElementById('qrSvg');
  const res = await fetch(form.dataset.endpoint, {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify(body)
  });
  const text = await res.text();
  if (!res.ok) {
    alert(text);
    return;
  }
  if (body.format === 'svg') {
    svg.innerHTML = atob(text.split(',')[1]);
    svg.classList.remove('hidden');
    img.classList.add('hidden');
  } else {
    img.src = text;
    img.classList.remove('hidden');
    svg.classList.add('hidden');
  }
});
`
