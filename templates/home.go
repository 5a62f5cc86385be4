package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// CountryOption is one entry of the country dropdown.
type CountryOption struct {
	ISO2        string
	Name        string
	DialCode    string
	FlagClass   string
	Placeholder string
}

// PhoneField is the rendered state of the phone widget.
type PhoneField struct {
	ID          string
	Selected    string
	Raw         string
	Placeholder string
	Mask        string
	MaskPrefix  string
	Required    bool
	Disabled    bool
	ErrorState  bool
	Float       bool
	Preferred   []CountryOption
	Countries   []CountryOption
}

// HomeData holds everything the demo form renders.
type HomeData struct {
	Lang    string
	Name    string
	Surname string
	Phone   PhoneField
	Errors  []string
	Notice  string
}

var homeLabels = map[string]map[string]string{
	"ro": {
		"title":   "Număr de telefon internațional",
		"name":    "Prenume",
		"surname": "Nume",
		"phone":   "Telefon",
		"submit":  "Trimite",
	},
	"en": {
		"title":   "International phone number",
		"name":    "Name",
		"surname": "Surname",
		"phone":   "Phone",
		"submit":  "Submit",
	},
}

func label(lang, key string) string {
	if l, ok := homeLabels[lang]; ok {
		return l[key]
	}
	return homeLabels["ro"][key]
}

// Home renders the demo form with the phone widget.
func Home(data HomeData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}

		p.raw(`<!DOCTYPE html><html lang="`)
		p.text(data.Lang)
		p.raw(`"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		p.text(label(data.Lang, "title"))
		p.raw(`</title></head><body><main><h1>`)
		p.text(label(data.Lang, "title"))
		p.raw(`</h1>`)

		if data.Notice != "" {
			p.raw(`<p class="notice">`)
			p.text(data.Notice)
			p.raw(`</p>`)
		}
		if len(data.Errors) > 0 {
			p.raw(`<ul class="errors">`)
			for _, e := range data.Errors {
				p.raw(`<li>`)
				p.text(e)
				p.raw(`</li>`)
			}
			p.raw(`</ul>`)
		}

		p.raw(`<form method="post" action="/submit">`)
		textInput(p, "name", label(data.Lang, "name"), data.Name)
		textInput(p, "surname", label(data.Lang, "surname"), data.Surname)
		phoneField(p, label(data.Lang, "phone"), data.Phone)
		p.raw(`<button type="submit">`)
		p.text(label(data.Lang, "submit"))
		p.raw(`</button></form></main>`)
		p.raw(phoneScript)
		p.raw(`</body></html>`)

		return p.err
	})
}

func textInput(p *printer, name, title, value string) {
	p.raw(`<label>`)
	p.text(title)
	p.raw(` <input type="text" required name="`)
	p.text(name)
	p.raw(`" value="`)
	p.text(value)
	p.raw(`"></label>`)
}

func phoneField(p *printer, title string, f PhoneField) {
	class := "intl-tel-input"
	if f.Float {
		class += " float"
	}
	if f.ErrorState {
		class += " invalid"
	}

	p.raw(`<div class="`)
	p.text(class)
	p.raw(`" id="`)
	p.text(f.ID)
	p.raw(`"><label for="`)
	p.text(f.ID + "-number")
	p.raw(`">`)
	p.text(title)
	p.raw(`</label><select name="country"`)
	if f.Disabled {
		p.raw(` disabled`)
	}
	p.raw(`>`)
	for _, c := range f.Preferred {
		countryOption(p, c, c.ISO2 == f.Selected)
	}
	if len(f.Preferred) > 0 {
		p.raw(`<option disabled>──────────</option>`)
	}
	for _, c := range f.Countries {
		countryOption(p, c, c.ISO2 == f.Selected && !contains(f.Preferred, c.ISO2))
	}
	p.raw(`</select><span class="prefix">`)
	p.text(f.MaskPrefix)
	p.raw(`</span><input type="tel" name="phone" autocomplete="tel" id="`)
	p.text(f.ID + "-number")
	p.raw(`" value="`)
	p.text(f.Raw)
	p.raw(`" placeholder="`)
	p.text(f.Placeholder)
	p.raw(`" data-mask="`)
	p.text(f.Mask)
	p.raw(`"`)
	if f.Required {
		p.raw(` required`)
	}
	if f.Disabled {
		p.raw(` disabled`)
	}
	p.raw(`></div>`)
}

func countryOption(p *printer, c CountryOption, selected bool) {
	p.raw(`<option value="`)
	p.text(c.ISO2)
	p.raw(`" data-placeholder="`)
	p.text(c.Placeholder)
	p.raw(`"`)
	if selected {
		p.raw(` selected`)
	}
	p.raw(`>`)
	p.text(fmt.Sprintf("%s %s +%s", c.FlagClass, c.Name, c.DialCode))
	p.raw(`</option>`)
}

func contains(countries []CountryOption, iso2 string) bool {
	for _, c := range countries {
		if c.ISO2 == iso2 {
			return true
		}
	}
	return false
}

// phoneScript relays widget events to the phone API.
const phoneScript = `<script>
(function () {
  const root = document.querySelector('.intl-tel-input');
  if (!root) return;
  const select = root.querySelector('select');
  const input = root.querySelector('input[type=tel]');
  const prefix = root.querySelector('.prefix');

  function post(path, body) {
    return fetch(path, {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify(body),
    }).then(function (r) { return r.json(); });
  }

  function render(view) {
    if (!view || !view.country) return;
    prefix.textContent = view.maskPrefix;
    input.placeholder = view.placeholder;
    input.dataset.mask = view.mask;
    root.classList.toggle('invalid', view.errorState);
    root.classList.toggle('float', view.shouldLabelFloat);
  }

  select.addEventListener('change', function () {
    input.value = '';
    post('/api/phone/country', {iso2: select.value}).then(render);
  });
  input.addEventListener('keypress', function (e) {
    if (!/^[0-9+\- ]$/.test(e.key)) e.preventDefault();
  });
  input.addEventListener('input', function () {
    post('/api/phone/input', {value: input.value}).then(render);
  });
  input.addEventListener('focus', function () {
    post('/api/phone/focus', {focused: true}).then(render);
  });
  input.addEventListener('blur', function () {
    post('/api/phone/focus', {focused: false}).then(render);
  });
})();
</script>`
