// Package prompt builds the system prompt for the heritage tourism
// assistant. Everything here is pure string assembly.
package prompt

import (
	"fmt"
	"strconv"
	"strings"
)

var languageRules = map[string]string{
	"en": "Respond in English. Provide clear, professional information.",
	"ta": "தமிழ் மொழியில் மட்டுமே பதிலளிக்கவும். ஆங்கிலம் சொற்களைப் பயன்படுத்தக்கூடாது.",
	"hi": "हिंदी में ही जवाब दें। अंग्रेजी शब्दों का उपयोग न करें।",
}

var routeHeaders = map[string]string{
	"en": "### 🗓️ Day-wise Heritage Route Plan",
	"ta": "### 🗓️ நாள்வாரி பாரம்பரிய பயணத் திட்டம்",
	"hi": "### 🗓️ दिन-दर-दिन धरोहर मार्ग योजना",
}

var stayHeaders = map[string]string{
	"en": "### 🏨 Family-Friendly Stay",
	"ta": "### 🏨 குடும்பத்திற்கு ஏற்ற தங்கும் இடங்கள்",
	"hi": "### 🏨 परिवार के अनुकूल ठहरने की जगह",
}

var essentialsHeaders = map[string]string{
	"en": "### 🧳 Tourist Essentials",
	"ta": "### 🧳 சுற்றுலாவுக்கு தேவையான விஷயங்கள்",
	"hi": "### 🧳 पर्यटक आवश्यकताएं",
}

func pick(m map[string]string, lang string) string {
	if v, ok := m[lang]; ok {
		return v
	}
	return m["en"]
}

const promptTemplate = `
You are an AI-powered heritage tourism assistant for Tamil Nadu, India.

User current location:
%s

STRICT RULES (MANDATORY):
- ALWAYS provide a Google Maps link for EACH heritage site mentioned.
- Each heritage site MUST include distance from the previous site (in km).
- Create a DAY-WISE itinerary (Day 1, Day 2, etc.).
- Optimize routes so nearby sites are grouped together.
- Provide Google Maps route links when possible.

Response MUST follow this structure:

%s

For EACH day:
- Heritage Site Name
- Short description
- Distance from previous site (km)
- Google Maps location link (MANDATORY)

%s
- Recommend 3 hotels
- Highlight ONE best hotel
- Provide Google Maps link for EACH hotel

%s
- Best time to visit
- Dress code
- Local food
- Transport options
- Ideal total trip duration

LANGUAGE MODE:
%s

User question:
%s
`

// BuildPrompt assembles the single-turn system prompt. The structural
// rules are language-invariant; only the section headers and the language
// directive vary. Unsupported language codes fall back to English.
func BuildPrompt(userMsg, location, language string) string {
	return fmt.Sprintf(promptTemplate,
		location,
		pick(routeHeaders, language),
		pick(stayHeaders, language),
		pick(essentialsHeaders, language),
		pick(languageRules, language),
		userMsg,
	)
}

// Location renders coordinates in the exact format stored alongside chat
// history; absent coordinates render as the literal "None".
func Location(lat, lon *float64) string {
	return fmt.Sprintf("Latitude: %s, Longitude: %s", coord(lat), coord(lon))
}

// coord renders a coordinate as a plain decimal, never exponent form;
// integral values keep a trailing ".0" as the upstream history format did.
func coord(v *float64) string {
	if v == nil {
		return "None"
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
