// Package mockdata is the deterministic fallback for everything the
// generator would otherwise produce.
package mockdata

import "github.com/tatianab/chronicle/internal/models"

func city(id, name string, lat, lng float64, pop int64, brightness float64, tech int, civ, desc string) models.City {
	return models.City{
		ID:           id,
		Name:         name,
		Lat:          lat,
		Lng:          lng,
		Population:   pop,
		Brightness:   brightness,
		TechLevel:    tech,
		Civilization: civ,
		Description:  desc,
	}
}

func route(id string, from, to models.City, volume float64, desc string) models.TradeRoute {
	return models.TradeRoute{
		ID:          id,
		From:        models.RoutePoint{Lat: from.Lat, Lng: from.Lng, City: from.Name},
		To:          models.RoutePoint{Lat: to.Lat, Lng: to.Lng, City: to.Name},
		Volume:      volume,
		Description: desc,
	}
}

func region(id, civ, color string, lat, lng, radius float64) models.Region {
	return models.Region{ID: id, Civilization: civ, Color: color, Center: models.LatLng{Lat: lat, Lng: lng}, Radius: radius}
}

func world10000BC() models.WorldState {
	jericho := city("jericho", "Proto-Jericho", 31.87, 35.44, 300, 0.3, 2, "Natufian", "One of the earliest permanent settlements, cultivating wild wheat and barley.")
	jericho.Pros = "Spring-fed oasis with reliable water and wild cereals."
	jericho.Cons = "Hemmed in by desert; few metals nearby."
	gobekli := city("gobekli", "Göbekli Tepe", 37.22, 38.92, 200, 0.4, 2, "Pre-Pottery Neolithic", "A mysterious ceremonial site where massive stone pillars are being erected.")
	gobekli.Pros = "A gathering place that draws people from across the region."
	gobekli.Cons = "Few permanent residents; its power is ritual, not economic."
	catal := city("catalhoyuk", "Proto-Çatalhöyük", 37.67, 32.83, 150, 0.2, 2, "Anatolian", "Early farming communities experimenting with domesticated crops.")
	mehrgarh := city("mehrgarh", "Mehrgarh", 29.38, 67.54, 100, 0.2, 1, "Indus Precursor", "One of the earliest farming villages in South Asia.")
	hemudu := city("hemudu", "Hemudu Culture", 30.05, 121.35, 80, 0.2, 1, "Yangtze", "Early rice cultivation communities along the Yangtze River.")
	hemudu.Pros = "Rice paddies can feed dense populations."
	hemudu.Cons = "Far from every other center of innovation."
	nile := city("nile_delta", "Nile Settlements", 30.04, 31.23, 120, 0.2, 1, "Proto-Egyptian", "Fishing and farming communities along the fertile Nile floodplain.")
	nile.Pros = "Annual floods renew the soil for free."
	nile.Cons = "Entirely dependent on the river's mood."
	zagros := city("zagros", "Zagros Foothills", 35.5, 46.0, 180, 0.25, 2, "Proto-Sumerian", "Goat and sheep herders laying foundations for Mesopotamian civilization.")
	ubaid := city("ubaid", "Proto-Ubaid", 30.96, 46.10, 100, 0.2, 1, "Mesopotamian", "Early communities in the marshlands between the Tigris and Euphrates.")
	sahara := city("sahara", "Green Sahara Camps", 23.0, 12.0, 60, 0.15, 1, "Saharan", "The Sahara is still green; pastoral communities herd cattle across grasslands.")
	baltic := city("baltic", "Baltic Hunter Camps", 55.0, 23.0, 40, 0.1, 1, "Mesolithic European", "Hunter-gatherer bands following reindeer herds as the ice retreats.")
	dogger := city("doggerland", "Doggerland", 54.0, 2.0, 50, 0.1, 1, "Mesolithic European", "A land bridge between Britain and Europe, soon to be flooded by rising seas.")
	clovis := city("clovis", "Clovis Culture", 34.4, -103.2, 30, 0.1, 1, "Paleo-American", "Big-game hunters spreading across North America.")
	clovis.Pros = "A whole continent with no rivals."
	clovis.Cons = "The megafauna they hunt are vanishing."
	peru := city("peru_coast", "Peruvian Coast", -12.0, -77.0, 40, 0.1, 1, "Andean Precursor", "Fishing communities along the Pacific coast beginning to settle.")
	jomon := city("jomon", "Jōmon Japan", 35.7, 139.7, 50, 0.15, 1, "Jōmon", "Sophisticated hunter-gatherers creating the world's oldest pottery.")
	arnhem := city("australia", "Arnhem Land", -12.5, 133.0, 30, 0.1, 1, "Aboriginal", "Ancient rock art traditions continue, songlines map the continent.")

	return models.WorldState{
		Year:      -10000,
		Epoch:     1,
		Narrative: "The Ice Age is ending. Small bands of humans are scattered across the continents, beginning to experiment with agriculture in the Fertile Crescent. The first permanent settlements are emerging where wild grains grow abundantly.",
		Cities:    []models.City{jericho, gobekli, catal, mehrgarh, hemudu, nile, zagros, ubaid, sahara, baltic, dogger, clovis, peru, jomon, arnhem},
		TradeRoutes: []models.TradeRoute{
			route("fc1", jericho, gobekli, 2, "Obsidian and grain exchange"),
			route("fc2", gobekli, zagros, 1, "Early pastoral connections"),
			route("nl", nile, jericho, 1, "Shells and grain trade"),
		},
		Regions: []models.Region{
			region("fertile_crescent", "Natufian / Pre-Pottery Neolithic", "#8B4513", 34.0, 38.0, 8),
			region("nile_valley", "Proto-Egyptian", "#CD853F", 26.0, 32.0, 5),
			region("indus_region", "Indus Precursor", "#D2691E", 28.0, 70.0, 4),
			region("yellow_river", "Yangtze / Yellow River", "#DAA520", 34.0, 110.0, 6),
		},
	}
}

func world2000BC() models.WorldState {
	ur := city("ur", "Ur", 30.96, 46.10, 65000, 0.9, 5, "Sumerian", "One of the world's largest cities, home to the great ziggurat.")
	babylon := city("babylon", "Babylon", 32.54, 44.42, 40000, 0.8, 5, "Babylonian", "Rising power in Mesopotamia, will soon eclipse Ur.")
	memphis := city("memphis", "Memphis", 29.85, 31.25, 50000, 0.85, 5, "Egyptian", "Capital of unified Egypt, the pyramids stand as monuments.")
	thebes := city("thebes", "Thebes", 25.70, 32.64, 30000, 0.7, 5, "Egyptian", "Religious center of Egypt, temple complexes honor Amun-Ra.")
	knossos := city("knossos", "Knossos", 35.30, 25.16, 20000, 0.75, 5, "Minoan", "Heart of Minoan civilization with its labyrinthine palace.")
	mohenjo := city("mohenjo_daro", "Mohenjo-daro", 27.33, 68.14, 40000, 0.8, 5, "Indus Valley", "Masterwork of urban planning with grid streets and sewage.")
	harappa := city("harappa", "Harappa", 30.63, 72.87, 35000, 0.75, 5, "Indus Valley", "Northern hub of Indus trade network.")
	erlitou := city("anyang", "Erlitou", 34.70, 112.70, 25000, 0.6, 4, "Xia Dynasty", "Legendary first dynasty of China, bronze casting advancing.")
	troy := city("troy", "Troy", 39.96, 26.24, 8000, 0.5, 4, "Anatolian", "Strategic fortress controlling the Dardanelles.")
	ugarit := city("ugarit", "Ugarit", 35.60, 35.78, 15000, 0.6, 4, "Canaanite", "Cosmopolitan port city with multiple scripts in daily use.")

	return models.WorldState{
		Year:      -2000,
		Epoch:     2,
		Narrative: "Bronze Age civilizations flourish. Writing has been invented, the first empires are forming, and trade networks span thousands of miles. Egypt, Mesopotamia, and the Indus Valley are the centers of the world.",
		Cities:    []models.City{ur, babylon, memphis, thebes, knossos, mohenjo, harappa, erlitou, troy, ugarit},
		TradeRoutes: []models.TradeRoute{
			route("me", ur, memphis, 8, "Luxury goods, copper, and grain"),
			route("mie", knossos, memphis, 6, "Olive oil, wine, and crafts"),
			route("im", mohenjo, ur, 5, "Sea trade via the Persian Gulf"),
			route("mt", knossos, troy, 4, "Aegean metals trade"),
			route("lt", ugarit, babylon, 5, "Cedar wood and purple dye"),
		},
		Regions: []models.Region{
			region("mesopotamia", "Sumerian / Babylonian", "#4169E1", 32.0, 45.0, 6),
			region("egypt", "Egyptian", "#FFD700", 27.0, 31.0, 5),
			region("minoan", "Minoan", "#8A2BE2", 36.0, 25.0, 4),
			region("indus", "Indus Valley", "#20B2AA", 28.0, 70.0, 5),
			region("shang", "Xia / Early Shang", "#DC143C", 35.0, 113.0, 6),
		},
	}
}

func world1AD() models.WorldState {
	rome := city("rome", "Rome", 41.90, 12.50, 1000000, 1.0, 7, "Roman", "Capital of the greatest empire the West has ever seen.")
	alexandria := city("alexandria", "Alexandria", 31.20, 29.92, 500000, 0.9, 7, "Roman-Egyptian", "Center of learning, home to the great Library.")
	changan := city("changan", "Chang'an", 34.26, 108.94, 400000, 0.9, 7, "Han Dynasty", "Eastern terminus of the Silk Road, capital of Han China.")
	antioch := city("antioch", "Antioch", 36.20, 36.15, 250000, 0.8, 6, "Roman", "Rome's eastern jewel, a crossroads of cultures.")
	pataliputra := city("pataliputra", "Pataliputra", 25.61, 85.14, 300000, 0.8, 6, "Kushan-Indian", "Grand city on the Ganges, Buddhist monks mingle with merchants.")
	carthage := city("carthage", "Carthage", 36.85, 10.32, 100000, 0.6, 6, "Roman-African", "Rebuilt as a Roman province, thriving again.")
	teotihuacan := city("teotihuacan", "Teotihuacan", 19.69, -98.84, 125000, 0.7, 5, "Mesoamerican", "City of the gods, dominated by the Pyramid of the Sun.")
	aksum := city("aksum", "Aksum", 14.12, 38.73, 50000, 0.5, 5, "Aksumite", "Ethiopian highland kingdom trading in gold and incense.")
	luoyang := city("luoyang", "Luoyang", 34.62, 112.45, 350000, 0.85, 7, "Han Dynasty", "Eastern capital where Buddhism first enters China.")
	petra := city("petra", "Petra", 30.33, 35.44, 30000, 0.5, 5, "Nabataean", "Rock-carved city controlling Arabian trade routes.")
	londinium := city("londinium", "Londinium", 51.51, -0.13, 15000, 0.3, 4, "Roman-British", "Frontier settlement on the edge of the known world.")
	taxila := city("taxila", "Taxila", 33.75, 72.83, 40000, 0.5, 5, "Indo-Greek", "Crossroads where Greek philosophy meets Buddhist thought.")

	return models.WorldState{
		Year:      1,
		Epoch:     3,
		Narrative: "The Roman Empire dominates the Mediterranean. The Han Dynasty rules China. The Silk Road connects East and West for the first time. Great religions are spreading, reshaping cultures across continents.",
		Cities:    []models.City{rome, alexandria, changan, antioch, pataliputra, carthage, teotihuacan, aksum, luoyang, petra, londinium, taxila},
		TradeRoutes: []models.TradeRoute{
			route("silk1", changan, taxila, 7, "Silk Road: silk, spices, ideas"),
			route("silk2", taxila, antioch, 6, "Silk Road western leg"),
			route("med", rome, alexandria, 9, "Grain and luxury goods"),
			route("red_sea", alexandria, aksum, 4, "Red Sea spice trade"),
			route("indian", pataliputra, luoyang, 5, "Buddhist missionaries and trade"),
		},
		Regions: []models.Region{
			region("roman", "Roman Empire", "#8B0000", 41.0, 15.0, 15),
			region("han", "Han Dynasty", "#DC143C", 35.0, 110.0, 10),
			region("kushan", "Kushan Empire", "#20B2AA", 30.0, 70.0, 8),
			region("meso", "Mesoamerican", "#228B22", 19.0, -99.0, 5),
			region("aksumite", "Aksumite", "#DAA520", 14.0, 39.0, 4),
		},
	}
}

func world2000AD() models.WorldState {
	newYork := city("new_york", "New York", 40.71, -74.01, 8000000, 1.0, 9, "American", "Global financial and cultural capital.")
	london := city("london", "London", 51.51, -0.13, 7000000, 0.95, 9, "British", "Historic world power, financial hub.")
	tokyo := city("tokyo", "Tokyo", 35.68, 139.69, 13000000, 1.0, 10, "Japanese", "Technological frontier, largest metro on Earth.")
	beijing := city("beijing", "Beijing", 39.90, 116.40, 11000000, 0.95, 9, "Chinese", "Capital of a rising superpower investing in space.")
	mumbai := city("mumbai", "Mumbai", 19.08, 72.88, 12000000, 0.85, 8, "Indian", "Economic engine of the world's largest democracy.")
	saoPaulo := city("sao_paulo", "São Paulo", -23.55, -46.63, 10000000, 0.8, 8, "Brazilian", "Latin America's megacity, industrial powerhouse.")
	lagos := city("lagos", "Lagos", 6.52, 3.38, 8000000, 0.7, 6, "Nigerian", "Africa's fastest-growing city, a continent's future.")
	dubai := city("dubai", "Dubai", 25.20, 55.27, 1000000, 0.9, 9, "Emirati", "Desert transformed into a gleaming tech hub.")
	singapore := city("singapore", "Singapore", 1.35, 103.82, 4000000, 0.9, 9, "Singaporean", "City-state at the crossroads of global trade.")
	sf := city("san_francisco", "San Francisco", 37.77, -122.42, 800000, 0.95, 10, "American", "Silicon Valley's front door, where the future is coded.")
	moscow := city("moscow", "Moscow", 55.76, 37.62, 10000000, 0.8, 8, "Russian", "Former superpower with deep space heritage.")
	sydney := city("sydney", "Sydney", -33.87, 151.21, 4000000, 0.8, 9, "Australian", "Pacific gateway, growing tech and research hub.")

	return models.WorldState{
		Year:      2000,
		Epoch:     4,
		Narrative: "A connected world of 6 billion people. The internet is transforming communication. Space agencies eye Mars. Climate change and geopolitics shape the future. The question: can humanity reach the stars?",
		Cities:    []models.City{newYork, london, tokyo, beijing, mumbai, saoPaulo, lagos, dubai, singapore, sf, moscow, sydney},
		TradeRoutes: []models.TradeRoute{
			route("transatlantic", newYork, london, 10, "Transatlantic finance and data"),
			route("transpacific", sf, tokyo, 9, "Tech and manufacturing"),
			route("china_trade", beijing, singapore, 8, "Manufacturing supply chain"),
			route("india_gulf", mumbai, dubai, 7, "Energy and labor"),
			route("africa_rising", lagos, london, 5, "Resources and diaspora"),
		},
		Regions: []models.Region{
			region("north_america", "NATO / Western", "#4169E1", 40.0, -100.0, 15),
			region("europe", "European Union", "#0000CD", 50.0, 10.0, 10),
			region("east_asia", "East Asian", "#DC143C", 35.0, 115.0, 12),
			region("south_asia", "South Asian", "#FF8C00", 22.0, 78.0, 8),
			region("africa", "African Union", "#228B22", 5.0, 20.0, 15),
			region("south_america", "Latin American", "#FFD700", -15.0, -55.0, 12),
		},
	}
}

func world4000AD() models.WorldState {
	lagos := city("lagos", "Lagos Spaceport", 6.52, 3.38, 40000000, 1.0, 10, "West African Federation", "Equatorial launch complex sending freighters to the outer planets.")
	tokyo := city("tokyo", "Neo-Tokyo", 35.68, 139.69, 30000000, 1.0, 10, "Pacific Compact", "Arcology city where the first fusion drives were assembled.")
	quito := city("quito", "Quito Skyhook", -0.18, -78.47, 12000000, 0.95, 10, "Andean Union", "Anchor of the orbital elevator that made launch cheap.")
	mumbai := city("mumbai", "Mumbai", 19.08, 72.88, 45000000, 0.9, 9, "Indian Republic", "Shipyards building habitat modules for the asteroid belt.")
	london := city("london", "London", 51.51, -0.13, 15000000, 0.8, 9, "Atlantic League", "Old capital turned archive of the pre-space age.")
	shanghai := city("shanghai", "Shanghai", 31.23, 121.47, 50000000, 1.0, 10, "Chinese Commonwealth", "Mission control for humanity's first interstellar probe.")
	nairobi := city("nairobi", "Nairobi", -1.29, 36.82, 20000000, 0.9, 10, "East African Union", "Research capital for closed-loop life support.")
	houston := city("houston", "Houston", 29.76, -95.37, 18000000, 0.85, 9, "North American Union", "Veteran launch center, now training colonists.")

	return models.WorldState{
		Year:      4000,
		Epoch:     5,
		Narrative: "Two thousand years after the information age, humanity is a spacefaring species. Orbital elevators and fusion drives link the planets, and the first generation ships are being fitted for the journey to the stars.",
		Cities:    []models.City{lagos, tokyo, quito, mumbai, london, shanghai, nairobi, houston},
		TradeRoutes: []models.TradeRoute{
			route("equator", quito, lagos, 10, "Orbital freight handoff"),
			route("pacific", tokyo, shanghai, 9, "Drive components and crew"),
			route("indian_ocean", mumbai, nairobi, 7, "Habitat modules and biotech"),
			route("atlantic", houston, london, 5, "Colonist training and archives"),
		},
		Regions: []models.Region{
			region("pacific_compact", "Pacific Compact", "#DC143C", 33.0, 130.0, 14),
			region("african_federation", "African Federations", "#228B22", 5.0, 20.0, 18),
			region("andean_union", "Andean Union", "#FFD700", -5.0, -75.0, 9),
			region("atlantic_league", "Atlantic League", "#4169E1", 45.0, -30.0, 20),
		},
	}
}

var byEpoch = map[int]func() models.WorldState{
	1: world10000BC,
	2: world2000BC,
	3: world1AD,
	4: world2000AD,
	5: world4000AD,
}

// ForEpoch returns a fresh copy of the canned world for an epoch. Every
// epoch in the table, terminal included, has one.
func ForEpoch(n int) (models.WorldState, bool) {
	build, ok := byEpoch[n]
	if !ok {
		return models.WorldState{}, false
	}
	return build(), true
}
