package catalog

// Category is the NTAK main category (fokategoria) of a line item.
type Category string

const (
	CategoryFood               Category = "ETEL"
	CategoryOnPremiseSoftDrink Category = "ALKMENTESITAL_HELYBEN"
	CategoryPackagedSoftDrink  Category = "ALKMENTESITAL_NEM_HELYBEN"
	CategoryAlcoholicDrink     Category = "ALKOHOLOSITAL"
	CategoryOther              Category = "EGYEB"
)

var categories = table[Category]{
	{CategoryFood, "Étel"},
	{CategoryOnPremiseSoftDrink, "Helyben készített alkoholmentes ital"},
	{CategoryPackagedSoftDrink, "Nem helyben készített alkoholmentes ital"},
	{CategoryAlcoholicDrink, "Alkoholos Ital"},
	{CategoryOther, "Egyéb"},
}

// SubCategory is the NTAK sub-category (alkategoria) of a line item.
type SubCategory string

const (
	SubBreakfast        SubCategory = "REGGELI"
	SubSandwich         SubCategory = "SZENDVICS"
	SubStarter          SubCategory = "ELOETEL"
	SubSoup             SubCategory = "LEVES"
	SubMainCourse       SubCategory = "FOETEL"
	SubSideDish         SubCategory = "KORET"
	SubPicklesSalad     SubCategory = "SAVANYUSAG_SALATA"
	SubTasting          SubCategory = "KOSTOLO"
	SubPastry           SubCategory = "PEKSUTEMENY"
	SubDessert          SubCategory = "DESSZERT"
	SubSnack            SubCategory = "SNACK"
	SubMainWithSide     SubCategory = "FOETEL_KORETTEL"
	SubFoodPackage      SubCategory = "ETELCSOMAG"
	SubOther            SubCategory = "EGYEB"
	SubWater            SubCategory = "VIZ"
	SubLemonade         SubCategory = "LIMONADE_SZORP_FACSART"
	SubMocktail         SubCategory = "ALKOHOLMENTES_KOKTEL"
	SubTeaHotChocolate  SubCategory = "TEA_FORROCSOKOLADE"
	SubDrinkPackage     SubCategory = "ITALCSOMAG"
	SubCoffee           SubCategory = "KAVE"
	SubJuice            SubCategory = "ROSTOS_UDITO"
	SubSparklingSoda    SubCategory = "SZENSAVAS_UDITO"
	SubStillSoda        SubCategory = "SZENSAVMENTES_UDITO"
	SubCocktail         SubCategory = "KOKTEL"
	SubLiqueur          SubCategory = "LIKOR"
	SubSpirit           SubCategory = "PARLAT"
	SubBeer             SubCategory = "SOR"
	SubWine             SubCategory = "BOR"
	SubSparklingWine    SubCategory = "PEZSGO"
	SubServiceFee       SubCategory = "SZERVIZDIJ"
	SubTip              SubCategory = "BORRAVALO"
	SubDeliveryFee      SubCategory = "KISZALLITASI_DIJ"
	SubNonHospitality   SubCategory = "NEM_VENDEGLATAS"
	SubEcoPackaging     SubCategory = "KORNYEZETBARAT_CSOMAGOLAS"
	SubPlasticPackaging SubCategory = "MUANYAG_CSOMAGOLAS"
	SubDiscount         SubCategory = "KEDVEZMENY"
)

var subCategories = table[SubCategory]{
	{SubBreakfast, "reggeli"},
	{SubSandwich, "szendvics"},
	{SubStarter, "előétel"},
	{SubSoup, "leves"},
	{SubMainCourse, "főétel"},
	{SubSideDish, "köret"},
	{SubPicklesSalad, "savanyúság/saláta"},
	{SubTasting, "kóstolóétel, kóstolófalat"},
	{SubPastry, "péksütemény, pékáru"},
	{SubDessert, "desszert"},
	{SubSnack, "snack"},
	{SubMainWithSide, "főétel körettel"},
	{SubFoodPackage, "ételcsomag"},
	{SubOther, "egyéb"},
	{SubWater, "víz"},
	{SubLemonade, "limonádé / szörp / frissen facsart ital"},
	{SubMocktail, "alkoholmentes koktél, alkoholmentes kevert ital"},
	{SubTeaHotChocolate, "tea, forrócsoki és egyéb tejalapú italok"},
	{SubDrinkPackage, "italcsomag"},
	{SubCoffee, "kávé"},
	{SubJuice, "rostos üdítő"},
	{SubSparklingSoda, "szénsavas üdítő"},
	{SubStillSoda, "szénsavmentes üdítő"},
	{SubCocktail, "koktél, kevert ital"},
	{SubLiqueur, "likőr"},
	{SubSpirit, "párlat"},
	{SubBeer, "sör"},
	{SubWine, "bor"},
	{SubSparklingWine, "pezsgő"},
	{SubServiceFee, "szervizdíj"},
	{SubTip, "borravaló"},
	{SubDeliveryFee, "kiszállítási díj"},
	{SubNonHospitality, "nem vendéglátás"},
	{SubEcoPackaging, "környezetbarát csomagolás"},
	{SubPlasticPackaging, "műanyag csomagolás"},
	{SubDiscount, "kedvezmény"},
}

var subCategoriesByCategory = map[Category][]SubCategory{
	CategoryFood: {
		SubBreakfast, SubSandwich, SubStarter, SubSoup, SubMainCourse, SubSideDish,
		SubPicklesSalad, SubTasting, SubPastry, SubDessert, SubSnack, SubMainWithSide,
		SubFoodPackage, SubOther,
	},
	CategoryOnPremiseSoftDrink: {
		SubWater, SubLemonade, SubMocktail, SubTeaHotChocolate, SubDrinkPackage, SubCoffee,
	},
	CategoryPackagedSoftDrink: {
		SubWater, SubJuice, SubSparklingSoda, SubStillSoda, SubDrinkPackage,
	},
	CategoryAlcoholicDrink: {
		SubCocktail, SubLiqueur, SubSpirit, SubBeer, SubWine, SubSparklingWine, SubDrinkPackage,
	},
	CategoryOther: {
		SubOther, SubServiceFee, SubTip, SubDeliveryFee, SubNonHospitality,
		SubEcoPackaging, SubPlasticPackaging, SubDiscount,
	},
}

// Categories lists every main category in wire order.
func Categories() []Category { return categories.codes() }

// Valid reports whether c is a known main category.
func (c Category) Valid() bool { return categories.has(c) }

// Label returns the Hungarian display name.
func (c Category) Label() string { return categories.label(c) }

// SubCategories lists the sub-categories allowed under c.
func (c Category) SubCategories() []SubCategory {
	return append([]SubCategory(nil), subCategoriesByCategory[c]...)
}

// Allows reports whether sub is a permitted sub-category of c.
func (c Category) Allows(sub SubCategory) bool {
	for _, s := range subCategoriesByCategory[c] {
		if s == sub {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known sub-category.
func (s SubCategory) Valid() bool { return subCategories.has(s) }

// Label returns the Hungarian display name.
func (s SubCategory) Label() string { return subCategories.label(s) }

// IsAdjustment reports whether s marks a generated discount or service-fee line.
func (s SubCategory) IsAdjustment() bool {
	return s == SubDiscount || s == SubServiceFee
}
