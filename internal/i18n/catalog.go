// Package i18n translates user-facing progress and error messages. English
// text doubles as the message key.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"genstudio/internal/domain"
	"genstudio/internal/imagegen"
	"genstudio/internal/infra/credentials"
	"genstudio/internal/videojob"
)

// Supported lists the available locales; the first entry is the fallback.
var Supported = []language.Tag{language.English, language.Indonesian}

var matcher = language.NewMatcher(Supported)

var indonesian = map[string]string{
	videojob.StartMessage:    "Memulai pembuatan video... Proses ini dapat memakan waktu beberapa menit.",
	videojob.FinalizeMessage: "Pembuatan video selesai! Mengambil video...",
	videojob.NoVideoMessage:  "Pembuatan video berhasil, tetapi tautan unduhan tidak ditemukan.",
	videojob.PollMessages[0]: "Menganalisis prompt dan gambar...",
	videojob.PollMessages[1]: "Menyusun storyboard adegan...",
	videojob.PollMessages[2]: "Merender frame awal...",
	videojob.PollMessages[3]: "Menerapkan efek visual...",
	videojob.PollMessages[4]: "Menyelesaikan render video...",
	videojob.PollMessages[5]: "Hampir selesai, menyiapkan file video...",

	imagegen.NoImageMessage:     "Tidak ada gambar yang dihasilkan.",
	imagegen.NoEditImageMessage: "Tidak ada gambar dalam respons.",

	credentials.ErrHostUnavailable.Message: "Utilitas pemilihan kunci API tidak tersedia.",

	domain.DefaultMessage(domain.ErrorMissingCredential): "Kunci API tidak ditemukan. Silakan pilih kunci API.",
	domain.DefaultMessage(domain.ErrorInvalidCredential): "Kunci API tidak valid. Silakan pilih kunci API yang valid dan coba lagi.",
	domain.DefaultMessage(domain.ErrorValidation):        "Permintaan pembuatan tidak valid.",
	domain.DefaultMessage(domain.ErrorTransient):         "Layanan pembuatan sedang tidak tersedia untuk sementara.",
	domain.DefaultMessage(domain.ErrorNoOutput):          "Pembuatan selesai tanpa menghasilkan keluaran.",
	domain.DefaultMessage(domain.ErrorDownloadFailed):    "Gagal mengambil media yang dihasilkan.",
	domain.DefaultMessage(domain.ErrorUnknown):           "Terjadi kesalahan yang tidak diketahui.",

	"Please enter a prompt.":           "Silakan masukkan prompt.",
	"File size must be less than 4MB.": "Ukuran file harus kurang dari 4MB.",
	"reference image is required":      "Gambar referensi wajib diunggah.",
}

var cat = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, value := range indonesian {
		_ = b.SetString(language.Indonesian, key, value)
	}
	return b
}

// Match picks the best supported locale for the given preferences, each of
// which may be a tag or a full Accept-Language header.
func Match(preferences ...string) language.Tag {
	tag, _ := Negotiate(preferences...)
	return tag
}

// Negotiate is Match that also reports whether any preference matched a
// supported locale. Weighted entries are honoured by q-value.
func Negotiate(preferences ...string) (language.Tag, bool) {
	var tags []language.Tag
	for _, pref := range preferences {
		parsed, _, err := language.ParseAcceptLanguage(pref)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return Supported[0], false
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Supported[0], false
	}
	return Supported[index], true
}

// Translate returns msg in the locale of tag. Unknown messages, such as
// remote error texts, are returned unchanged.
func Translate(tag language.Tag, msg string) string {
	if _, ok := indonesian[msg]; !ok {
		return msg
	}
	return message.NewPrinter(tag, message.Catalog(cat)).Sprintf(msg)
}

// TranslateLocale is Translate for a locale string such as "id" or "en-US".
func TranslateLocale(locale, msg string) string {
	return Translate(Match(locale), msg)
}
