package fertilizer

import "fmt"

// GuideEntry holds application instructions and handling precautions for a
// fertilizer.
type GuideEntry struct {
	Instructions string `json:"instructions"`
	Precautions  string `json:"precautions"`
}

const npkPrecautions = "• Use protective equipment: gloves, mask, and safety glasses.\n" +
	"• Avoid contact with eyes and skin - rinse immediately if exposed.\n" +
	"• Do not apply in excessive amounts - can cause nutrient imbalance.\n" +
	"• Keep away from water sources to prevent eutrophication.\n" +
	"• Store in original packaging, away from moisture and direct sunlight."

func npkInstructions(grade string) string {
	return grade + " Application Guidelines:\n" +
		"• Timing: Apply before planting (basal) and during growth stages (30, 60, 90 days).\n" +
		"• Method: Broadcast evenly or apply in bands near root zone.\n" +
		"• Split Application: Divide total dose into 3-4 applications for optimal results.\n" +
		"• Incorporation: Lightly incorporate into soil after application."
}

var guide = map[string]GuideEntry{
	Balanced: {
		Instructions: npkInstructions("NPK 19:19:19"),
		Precautions:  "NPK 19:19:19 Safety Precautions:\n" + npkPrecautions,
	},
	NPBlend: {
		Instructions: npkInstructions("NPK 20:20:0"),
		Precautions:  "NPK 20:20:0 Safety Precautions:\n" + npkPrecautions,
	},
	NKBlend: {
		Instructions: npkInstructions("NPK 17:0:45"),
		Precautions:  "NPK 17:0:45 Safety Precautions:\n" + npkPrecautions,
	},
	PKBlend: {
		Instructions: npkInstructions("NPK 0:20:20"),
		Precautions:  "NPK 0:20:20 Safety Precautions:\n" + npkPrecautions,
	},
	Maintenance: {
		Instructions: npkInstructions("NPK 10:10:10"),
		Precautions:  "NPK 10:10:10 Safety Precautions:\n" + npkPrecautions,
	},
	Urea: {
		Instructions: "Urea Application Guidelines:\n" +
			"• Timing: Apply before planting or during early growth stages (30-45 days after planting).\n" +
			"• Method: Broadcast evenly or place in furrows 10-15 cm deep and cover with soil.\n" +
			"• Split Application: Divide into 2-3 doses for better efficiency.\n" +
			"• Irrigation: Apply before irrigation or during light rain for better absorption.",
		Precautions: "Urea Safety Precautions:\n" +
			"• Wear protective gloves, goggles, and a mask when handling.\n" +
			"• Do not apply in windy conditions to prevent drift.\n" +
			"• Do not mix with seeds as it can cause germination issues.\n" +
			"• Avoid application during hot, dry weather - can cause leaf burn.",
	},
	SuperPhosphate: {
		Instructions: "Superphosphate Application Guidelines:\n" +
			"• Timing: Apply as basal dose before planting or during early growth stages.\n" +
			"• Method: Broadcast evenly and incorporate into soil at 8-10 cm depth.\n" +
			"• Compatibility: Can be mixed with other fertilizers like urea.\n" +
			"• Irrigation: Apply before irrigation for better nutrient absorption.",
		Precautions: "Superphosphate Safety Precautions:\n" +
			"• Use protective equipment: gloves, mask, and safety glasses.\n" +
			"• Avoid dust inhalation during application.\n" +
			"• Keep away from water sources.\n" +
			"• Do not mix with seeds during planting.",
	},
	MuriateOfPotash: {
		Instructions: "Potassium Chloride (MOP) Application Guidelines:\n" +
			"• Timing: Apply before planting or during early to mid-growth stages.\n" +
			"• Method: Broadcast and incorporate into soil or apply in bands.\n" +
			"• Irrigation: Ensure adequate irrigation for proper nutrient movement.\n" +
			"• Split Application: Apply in 2-3 doses for better efficiency.",
		Precautions: "Potassium Chloride Safety Precautions:\n" +
			"• Handle with care - avoid dust inhalation.\n" +
			"• Do not apply directly to plant leaves - can cause burn.\n" +
			"• Store in a dry place, away from moisture.\n" +
			"• Keep away from children and pets.",
	},
	Lime: {
		Instructions: "Agricultural Lime Application Guidelines:\n" +
			"• Timing: Apply 2-3 months before planting so it can react with the soil.\n" +
			"• Method: Spread evenly and work into the top 15 cm of soil.\n" +
			"• Split Application: Apply large doses over two seasons.\n" +
			"• Retest soil pH after 6 months before liming again.",
		Precautions: "Lime Safety Precautions:\n" +
			"• Wear a dust mask and eye protection.\n" +
			"• Do not apply together with ammonium fertilizers or DAP.\n" +
			"• Avoid over-liming - it locks up micronutrients.",
	},
	SulfurOrGypsum: {
		Instructions: "Sulfur / Gypsum Application Guidelines:\n" +
			"• Timing: Apply elemental sulfur 2-3 months before planting; gypsum can be applied at planting.\n" +
			"• Method: Broadcast evenly and incorporate into the root zone.\n" +
			"• Irrigation: Keep soil moist so soil bacteria can oxidise sulfur.\n" +
			"• Retest soil pH after 3-6 months.",
		Precautions: "Sulfur / Gypsum Safety Precautions:\n" +
			"• Sulfur dust is flammable - store away from heat and sparks.\n" +
			"• Wear gloves, goggles and a dust mask.\n" +
			"• Do not exceed recommended rates - sudden acidification damages roots.",
	},
}

// Guide returns the application guide for a fertilizer name. Unknown names
// get generic guidance.
func Guide(name string) GuideEntry {
	if g, ok := guide[name]; ok {
		return g
	}
	return GuideEntry{
		Instructions: fmt.Sprintf("%s Application Guidelines:\n"+
			"• Dosage: Follow manufacturer's recommended dosage based on soil test results.\n"+
			"• Timing: Apply during appropriate growth stages for your crop.\n"+
			"• Method: Follow standard application methods for this fertilizer type.", name),
		Precautions: fmt.Sprintf("%s Safety Precautions:\n"+
			"• Wear appropriate protective equipment during handling.\n"+
			"• Follow manufacturer's safety guidelines.\n"+
			"• Store in a safe, dry location away from children and pets.", name),
	}
}
