// Package disease classifies sugarcane leaf images through an external model
// and maps the predicted class onto treatment advice.
package disease

// Class is one label the leaf model can predict.
type Class struct {
	Name           string
	Recommendation string
}

// Classes is in the model's output order.
var Classes = []Class{
	{"Banded Chlorosis", "Apply Zinc sulphate (ZnSO4) 25 kg/ha with 200 kg urea. Improve soil drainage."},
	{"Brown Spot", "Spray Mancozeb 75% WP @ 2.5 g/L or Carbendazim 50% WP @ 1 g/L. Keep field clean."},
	{"Dried Leaves", "Check nutrient deficiency. Foliar spray NPK (19:19:19) 2 g/L. Maintain irrigation."},
	{"Grassy Shoot", "Caused by phytoplasma. Remove infected clumps. Spray Imidacloprid 0.05%."},
	{"Healthy", "No disease detected. Maintain balanced fertilization (NPK 150:60:60 kg/ha)."},
	{"Mosaic", "Viral disease. Remove infected plants. Use resistant varieties. Spray Dimethoate 2 ml/L."},
	{"Pokkah Boeng", "Spray Carbendazim 0.1% or Propiconazole 1 ml/L. Remove infected leaves."},
	{"Red Rot", "Severe! Remove infected plants. Treat seed with Carbendazim 0.1% before sowing."},
	{"Rust", "Spray Propiconazole 1 ml/L or Mancozeb 2.5 g/L. Use resistant varieties."},
	{"Sett Rot", "Treat seed sets with Carbendazim 0.1% or Thiram 0.2% for 30 min."},
	{"Smut", "Hot water treatment of sets (50°C, 30 min). Spray Propiconazole 1 ml/L."},
	{"Yellow", "Apply ZnSO4 25 kg/ha with urea. Improve irrigation. Spray Mancozeb if fungal."},
}

const (
	UnknownLabel       = "Unknown"
	UnclearImageAdvice = "Unclear image. Please upload a clear sugarcane leaf."
)
