// Package i18n holds the page copy, the example prompt catalog and the
// user-facing error messages for the supported locales.
package i18n

import (
	"errors"
	"strings"

	"golang.org/x/text/language"

	"visualizer/internal/domain"
)

const (
	LocalePT = "pt"
	LocaleEN = "en"
)

var (
	supported = []language.Tag{language.Portuguese, language.English}
	matcher   = language.NewMatcher(supported)
)

// Normalize maps any language tag or Accept-Language value onto a supported
// locale. It returns "" when nothing matches with reasonable confidence.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return ""
	}
	return localeOf(supported[index])
}

// Supported reports whether locale is one of the catalog locales.
func Supported(locale string) bool {
	return locale == LocalePT || locale == LocaleEN
}

// LocaleForCountry returns the catalog locale for an ISO country code.
func LocaleForCountry(country string) string {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "":
		return ""
	case "PT", "BR", "AO", "MZ", "CV", "GW", "ST", "TL":
		return LocalePT
	default:
		return LocaleEN
	}
}

func localeOf(tag language.Tag) string {
	base, _ := tag.Base()
	if base.String() == LocalePT {
		return LocalePT
	}
	return LocaleEN
}

// Messages is the copy rendered on the page for one locale.
type Messages struct {
	Locale            string   `json:"locale"`
	Title             string   `json:"title"`
	Heading           string   `json:"heading"`
	Subtitle          string   `json:"subtitle"`
	UploadTitle       string   `json:"upload_title"`
	UploadHint        string   `json:"upload_hint"`
	UploadButton      string   `json:"upload_button"`
	OriginalLabel     string   `json:"original_label"`
	GeneratedLabel    string   `json:"generated_label"`
	ResultPlaceholder string   `json:"result_placeholder"`
	Working           string   `json:"working"`
	PromptLabel       string   `json:"prompt_label"`
	PromptPlaceholder string   `json:"prompt_placeholder"`
	Generate          string   `json:"generate"`
	Generating        string   `json:"generating"`
	Reset             string   `json:"reset"`
	DownloadResult    string   `json:"download_result"`
	DownloadBundle    string   `json:"download_bundle"`
	Footer            string   `json:"footer"`
	DefaultPrompt     string   `json:"default_prompt"`
	Examples          []string `json:"examples"`

	invalidFile  string
	missingInput string
	tooLarge     string
	noImage      string
	remotePrefix string
	unexpected   string
}

var catalog = map[string]Messages{
	LocalePT: {
		Locale:            LocalePT,
		Title:             "Visualizador Jardin Maison",
		Heading:           "Visualize a Sua Casa Sustentável de Sonho",
		Subtitle:          "Carregue uma foto do seu jardim, descreva a sua visão e deixe o Gemini dar vida à sua casa sustentável.",
		UploadTitle:       "Carregue a Foto do seu Jardim",
		UploadHint:        "Clique para selecionar uma imagem",
		UploadButton:      "Carregar",
		OriginalLabel:     "ORIGINAL",
		GeneratedLabel:    "GERADO",
		ResultPlaceholder: "A sua imagem gerada aparecerá aqui.",
		Working:           "O Gemini está a visualizar...",
		PromptLabel:       "Descreva a sua visão",
		PromptPlaceholder: "ex: Adicione uma casa caracol de madeira neste jardim",
		Generate:          "Visualizar a Minha Casa",
		Generating:        "A gerar...",
		Reset:             "Recomeçar",
		DownloadResult:    "Descarregar imagem",
		DownloadBundle:    "Descarregar comparação (.zip)",
		Footer:            "Desenvolvido com Gemini 2.5 Flash Image",
		DefaultPrompt:     "Adicione uma casa de papel moderna e sustentável a este jardim.",
		Examples: []string{
			"Adicione uma 'Casa Caracol' biónica, uma escultura habitacional, neste jardim.",
			"Construa um muro que imita pedra natural com um jardim vertical integrado.",
			"Visualize uma piscina biológica com tratamento de água por plantas e areia.",
			"Insira um módulo de cozinha exterior com acabamentos em cimento reciclado e madeira.",
			"Imagine um alpendre com um guarda-corpos artístico e painéis solares discretos no telhado.",
			"Crie um espaço de lounge com mobiliário feito de paletes e ferro reciclado.",
			"Instale um sistema de captação de águas pluviais com um design moderno.",
			"Desenhe um caminho iluminado que leva a um estúdio de arte feito de materiais reaproveitados.",
			"Adicione um aerogerador silencioso e elegante no canto do terreno.",
			"Transforme a parede do fundo numa fachada viva com um sistema de irrigação gota a gota.",
		},
		invalidFile:  "Por favor, selecione um ficheiro de imagem válido.",
		missingInput: "Por favor, carregue uma imagem e insira um prompt.",
		tooLarge:     "A imagem selecionada é demasiado grande.",
		noImage:      "Não foram encontrados dados de imagem na resposta do Gemini.",
		remotePrefix: "Falha ao gerar a imagem: ",
		unexpected:   "Ocorreu um erro inesperado ao gerar a imagem.",
	},
	LocaleEN: {
		Locale:            LocaleEN,
		Title:             "Jardin Maison Visualizer",
		Heading:           "Visualize Your Dream Sustainable Home",
		Subtitle:          "Upload a photo of your garden, describe your vision and let Gemini bring your sustainable home to life.",
		UploadTitle:       "Upload a Photo of Your Garden",
		UploadHint:        "Click to select an image",
		UploadButton:      "Upload",
		OriginalLabel:     "ORIGINAL",
		GeneratedLabel:    "GENERATED",
		ResultPlaceholder: "Your generated image will appear here.",
		Working:           "Gemini is visualizing...",
		PromptLabel:       "Describe your vision",
		PromptPlaceholder: "e.g. Add a wooden snail house to this garden",
		Generate:          "Visualize My Home",
		Generating:        "Generating...",
		Reset:             "Start over",
		DownloadResult:    "Download image",
		DownloadBundle:    "Download comparison (.zip)",
		Footer:            "Built with Gemini 2.5 Flash Image",
		DefaultPrompt:     "Add a modern, sustainable paper house to this garden.",
		Examples: []string{
			"Add a bionic 'Snail House', a livable sculpture, to this garden.",
			"Build a wall that imitates natural stone with an integrated vertical garden.",
			"Visualize a natural swimming pool with water filtered by plants and sand.",
			"Insert an outdoor kitchen module finished in recycled concrete and wood.",
			"Imagine a porch with an artistic railing and discreet solar panels on the roof.",
			"Create a lounge area with furniture made from pallets and recycled iron.",
			"Install a rainwater harvesting system with a modern design.",
			"Draw a lit path leading to an art studio made from reclaimed materials.",
			"Add a quiet, elegant wind turbine in the corner of the lot.",
			"Turn the back wall into a living facade with a drip irrigation system.",
		},
		invalidFile:  "Please select a valid image file.",
		missingInput: "Please upload an image and enter a prompt.",
		tooLarge:     "The selected image is too large.",
		noImage:      "No image data was found in the Gemini response.",
		remotePrefix: "Failed to generate the image: ",
		unexpected:   "An unexpected error occurred while generating the image.",
	},
}

// For returns the messages for locale, falling back to English.
func For(locale string) Messages {
	if m, ok := catalog[locale]; ok {
		return m
	}
	return catalog[LocaleEN]
}

// DefaultPrompt returns the prompt a new session starts with.
func DefaultPrompt(locale string) string {
	return For(locale).DefaultPrompt
}

// ErrorMessage renders err for the user in the given locale. Remote failures
// keep the upstream message after a localized prefix; errors outside the
// domain sentinels render as the generic unexpected-error text.
func ErrorMessage(locale string, err error) string {
	if err == nil {
		return ""
	}
	m := For(locale)
	switch {
	case errors.Is(err, domain.ErrInvalidImageFile):
		return m.invalidFile
	case errors.Is(err, domain.ErrMissingInput):
		return m.missingInput
	case errors.Is(err, domain.ErrUploadTooLarge):
		return m.tooLarge
	case errors.Is(err, domain.ErrNoImageInResponse):
		return m.noImage
	case errors.Is(err, domain.ErrRemoteCall):
		detail := strings.TrimPrefix(err.Error(), domain.ErrRemoteCall.Error())
		detail = strings.TrimSpace(strings.TrimPrefix(detail, ":"))
		if detail == "" {
			return strings.TrimSuffix(m.remotePrefix, ": ")
		}
		return m.remotePrefix + detail
	case errors.Is(err, domain.ErrUnexpected):
		return m.unexpected
	}
	// Unclassified errors may carry internal detail such as file paths.
	return m.unexpected
}
