package catalog

import "strings"

// Categorize returns the category key for a Dutch item name, or "" when no
// keyword matches (the item stays uncategorized). Exact match first, then
// substring match with longer keywords tried before shorter ones.
func Categorize(itemName string) string {
	name := strings.ToLower(strings.TrimSpace(itemName))
	if name == "" {
		return ""
	}

	if cat, ok := exactMatch[name]; ok {
		return cat
	}

	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return ""
}

var exactMatch = map[string]string{
	// Groente & Fruit
	"appel":        "produce",
	"appels":       "produce",
	"banaan":       "produce",
	"bananen":      "produce",
	"paprika":      "produce",
	"tomaat":       "produce",
	"tomaten":      "produce",
	"komkommer":    "produce",
	"sla":          "produce",
	"ui":           "produce",
	"uien":         "produce",
	"knoflook":     "produce",
	"aardappelen":  "produce",
	"aardappels":   "produce",
	"wortels":      "produce",
	"broccoli":     "produce",
	"bloemkool":    "produce",
	"spinazie":     "produce",
	"champignons":  "produce",
	"citroen":      "produce",
	"druiven":      "produce",
	"aardbeien":    "produce",

	// Zuivel
	"melk":      "dairy",
	"yoghurt":   "dairy",
	"kwark":     "dairy",
	"kaas":      "dairy",
	"boter":     "dairy",
	"roomboter": "dairy",
	"eieren":    "dairy",
	"slagroom":  "dairy",
	"vla":       "dairy",

	// Vlees & Vis
	"gehakt":    "meat",
	"kip":       "meat",
	"kipfilet":  "meat",
	"zalm":      "meat",
	"vis":       "meat",
	"worst":     "meat",
	"spek":      "meat",
	"ham":       "meat",

	// Brood & Gebak
	"brood":      "bakery",
	"stokbrood":  "bakery",
	"croissants": "bakery",
	"beschuit":   "bakery",
	"crackers":   "bakery",

	// Voorraadkast
	"rijst":     "pantry",
	"pasta":     "pantry",
	"spaghetti": "pantry",
	"macaroni":  "pantry",
	"bloem":     "pantry",
	"suiker":    "pantry",
	"zout":      "pantry",
	"olijfolie": "pantry",
	"hagelslag": "pantry",
	"pindakaas": "pantry",
	"jam":       "pantry",

	// Dranken
	"koffie": "beverages",
	"thee":   "beverages",
	"cola":   "beverages",
	"bier":   "beverages",
	"wijn":   "beverages",
	"sap":    "beverages",

	// Snacks & Snoep
	"chips":     "snacks",
	"snoep":     "snacks",
	"chocolade": "snacks",
	"koekjes":   "snacks",
	"drop":      "snacks",

	// Huishouden
	"afwasmiddel": "household",
	"wasmiddel":   "household",
	"keukenrol":   "household",
	"wc-papier":   "household",
	"wc papier":   "household",

	// Verzorging
	"shampoo":   "personal_care",
	"tandpasta": "personal_care",
	"zeep":      "personal_care",
	"deodorant": "personal_care",
}

var substringMatches = []struct {
	keyword  string
	category string
}{
	{"halfvolle melk", "dairy"},
	{"volle melk", "dairy"},
	{"karnemelk", "dairy"},
	{"yoghurt", "dairy"},
	{"kaas", "dairy"},
	{"kipfilet", "meat"},
	{"gehakt", "meat"},
	{"filet", "meat"},
	{"worst", "meat"},
	{"brood", "bakery"},
	{"bolletjes", "bakery"},
	{"diepvries", "frozen"},
	{"pizza", "frozen"},
	{"ijs", "frozen"},
	{"sinaasappel", "produce"},
	{"appel", "produce"},
	{"tomaten", "produce"},
	{"salade", "produce"},
	{"sap", "beverages"},
	{"water", "beverages"},
	{"chocola", "snacks"},
	{"koek", "snacks"},
	{"papier", "household"},
	{"schoonmaak", "household"},
}
