package contentgen

import "estatecast/pkg/domain"

// Static content configuration for the Windsor-Essex market. These tables are
// never mutated after init; generators only read from them.

var primaryLocations = []string{
	"Windsor", "Essex County", "Windsor-Essex", "Windsor Ontario",
	"Essex", "Kingsville", "Leamington", "Tecumseh", "LaSalle",
	"Amherstburg", "Belle River", "Harrow",
}

var neighborhoods = []string{
	"Downtown Windsor", "Walkerville", "Riverside", "South Windsor",
	"East Windsor", "West End", "Forest Glade", "Devonshire",
	"Sandwich", "University District", "Little Italy",
}

var primaryKeywords = []string{
	"real estate", "homes for sale", "property", "house", "listing",
	"real estate agent", "realtor", "home buyer", "home seller",
	"property investment", "housing market",
}

var longTailKeywords = []string{
	"first time home buyer", "luxury homes", "investment property",
	"market trends", "home valuation", "property search",
	"real estate market analysis", "home buying tips",
	"selling your home", "property investment opportunities",
}

type hashtagStrategy struct {
	minTags   int
	maxTags   int
	highMix   float64
	mediumMix float64
	nicheMix  float64
}

var hashtagStrategies = map[domain.Platform]hashtagStrategy{
	domain.PlatformInstagram: {minTags: 8, maxTags: 12, highMix: 0.3, mediumMix: 0.4, nicheMix: 0.3},
	domain.PlatformFacebook:  {minTags: 2, maxTags: 5, highMix: 0.5, mediumMix: 0.3, nicheMix: 0.2},
}

var highVolumeTags = []string{
	"#RealEstate", "#HomesForSale", "#Property", "#House",
	"#RealEstateAgent", "#Realtor", "#Home", "#Investment",
	"#Ontario", "#Canada", "#PropertyInvestment",
}

var mediumVolumeTags = []string{
	"#WindsorRealEstate", "#EssexCounty", "#WindsorOntario",
	"#WindsorHomes", "#EssexCountyRealEstate", "#LocalRealEstate",
	"#WindsorProperty", "#SouthwestOntario", "#GreatLakesRegion",
	"#BorderCity", "#WindsorEssex",
}

var nicheTags = []string{
	"#WindsorHomeBuyer", "#EssexCountyHomes", "#WindsorPropertyMarket",
	"#LocalRealEstateExpert", "#WindsorInvestment", "#EssexCountyProperty",
	"#WindsorNeighborhoods", "#DetroitWindsorArea", "#WindsorRealtor",
	"#EssexCountyAgent", "#WindsorListings", "#LocalPropertyExpert",
}

var categoryTags = map[domain.Category][]string{
	domain.CategoryPropertyShowcase: {"#JustListed", "#NewListing", "#PropertyShowcase"},
	domain.CategoryMarketUpdate:     {"#MarketUpdate", "#RealEstateNews", "#MarketTrends"},
	domain.CategoryEducational:      {"#RealEstateTips", "#HomeBuyingTips", "#RealEstateEducation"},
	domain.CategoryCommunity:        {"#CommunityLove", "#LocalBusiness", "#Neighborhood"},
}

type contentTemplate struct {
	hooks      []string
	structures []string
}

var contentTemplates = map[domain.Category]contentTemplate{
	domain.CategoryPropertyShowcase: {
		hooks: []string{
			"🏡 Just listed in {location}!",
			"✨ New on the market:",
			"🔥 Hot property alert!",
			"💎 Hidden gem discovered:",
			"🌟 Featured listing:",
		},
		structures: []string{
			"{hook}\n\n{property_description}\n\n💰 {price_info}\n📍 {location_details}\n\n{call_to_action}",
			"{hook}\n\n{key_features}\n\n{neighborhood_info}\n\n{call_to_action}",
			"{hook}\n\n{property_description}\n\n{investment_angle}\n\n{call_to_action}",
		},
	},
	domain.CategoryMarketUpdate: {
		hooks: []string{
			"📊 {location} Market Update:",
			"📈 What's happening in {location}:",
			"🏘️ {location} Real Estate Trends:",
			"💹 Market Insight for {location}:",
			"📋 Your {location} Market Report:",
		},
		structures: []string{
			"{hook}\n\n{market_data}\n\n{analysis}\n\n{advice}\n\n{call_to_action}",
			"{hook}\n\n{trend_summary}\n\n{impact_explanation}\n\n{call_to_action}",
		},
	},
	domain.CategoryEducational: {
		hooks: []string{
			"💡 Home Buying Tip:",
			"🎓 Real Estate Education:",
			"📚 Did you know?",
			"🤔 Wondering about {topic}?",
			"💭 Common question:",
		},
		structures: []string{
			"{hook}\n\n{educational_content}\n\n{practical_application}\n\n{call_to_action}",
			"{hook}\n\n{myth_busting}\n\n{correct_information}\n\n{call_to_action}",
		},
	},
	domain.CategoryCommunity: {
		hooks: []string{
			"❤️ Love our {location} community!",
			"🌟 Spotlight on {location}:",
			"🏘️ Why {location} is special:",
			"📍 Local favorite in {location}:",
			"🎉 Celebrating {location}:",
		},
		structures: []string{
			"{hook}\n\n{community_feature}\n\n{personal_connection}\n\n{call_to_action}",
			"{hook}\n\n{local_business_spotlight}\n\n{community_value}\n\n{call_to_action}",
		},
	},
}

const (
	ctaPropertyInquiry    = "property_inquiry"
	ctaMarketConsultation = "market_consultation"
	ctaGeneralEngagement  = "general_engagement"
)

var ctaPools = map[string][]string{
	ctaPropertyInquiry: {
		"DM me for more details! 📩",
		"Ready to schedule a viewing? Let's chat! 💬",
		"Questions about this property? I'm here to help! 🤝",
		"Want to know more? Send me a message! 📱",
		"Interested? Let's discuss your options! 💼",
	},
	ctaMarketConsultation: {
		"Want a personalized market analysis? Let's connect! 📊",
		"Curious about your home's value? Let's talk! 🏡",
		"Ready to explore the market? I'm here to guide you! 🗺️",
		"Need market insights for your area? Reach out! 📈",
		"Planning your next move? Let's strategize! 🎯",
	},
	ctaGeneralEngagement: {
		"What are your thoughts? Share in the comments! 💭",
		"Have questions? Drop them below! ⬇️",
		"Tag someone who needs to see this! 👥",
		"Save this post for later! 🔖",
		"Share your experience in the comments! 💬",
	},
}

type hourRange struct {
	start int // inclusive
	end   int // exclusive
}

type postingWindows struct {
	weekday []hourRange
	weekend []hourRange
}

// Best posting windows per platform, Eastern local time.
var optimalPostingWindows = map[domain.Platform]postingWindows{
	domain.PlatformInstagram: {
		weekday: []hourRange{{11, 13}, {18, 20}},
		weekend: []hourRange{{10, 12}},
	},
	domain.PlatformFacebook: {
		weekday: []hourRange{{9, 10}, {15, 16}},
		weekend: []hourRange{{12, 13}},
	},
}

var propertyTypes = []string{"family home", "condo", "townhouse", "luxury home", "starter home", "investment property"}

var propertyFeatures = []string{"updated kitchen", "spacious bedrooms", "beautiful backyard", "modern finishes", "great location", "move-in ready"}

var marketTrends = []string{"steady growth", "increased activity", "strong demand", "balanced market", "buyer opportunities"}

var educationalTopics = []string{"home inspection", "mortgage pre-approval", "market timing", "property valuation", "negotiation strategies"}

var communityFeatures = []string{"local businesses", "parks and recreation", "schools", "cultural events", "dining scene"}

var imageBasePrompts = map[domain.Category][]string{
	domain.CategoryPropertyShowcase: {
		"Professional real estate photography of a beautiful {property_type} exterior in {location}, Ontario, Canada",
		"High-quality interior shot of a modern {room} with natural lighting, real estate photography style",
		"Stunning curb appeal photo of a well-maintained home in {location}, professional real estate marketing",
	},
	domain.CategoryMarketUpdate: {
		"Professional infographic showing real estate market trends for {location}, clean modern design",
		"Aerial view of {location} neighborhood showing residential properties, professional photography",
		"Modern real estate market analysis chart with {location} data, professional business style",
	},
	domain.CategoryEducational: {
		"Professional real estate consultation scene with agent and clients reviewing documents",
		"Clean, modern infographic explaining {topic} for real estate, educational style",
		"Professional real estate office setting with educational materials and charts",
	},
	domain.CategoryCommunity: {
		"Beautiful community scene in {location}, Ontario showing local businesses and residents",
		"Scenic view of {location} neighborhood highlighting community features and amenities",
		"Local {location} landmark or community gathering place, professional photography",
	},
}

var qualityEnhancers = []string{
	"professional photography",
	"high resolution",
	"excellent lighting",
	"commercial quality",
	"sharp focus",
	"real estate marketing style",
}

// Scoring indicator sets.
var (
	ctaIndicators        = []string{"dm", "message", "contact", "call", "visit", "schedule", "book"}
	engagementIndicators = []string{"?", "!", "comment", "share", "tag", "save"}
	engagementCTAs       = []string{"dm", "message", "contact", "comment", "share", "tag"}
	optimizeCTAs         = []string{"dm", "message", "contact", "call"}
	visualWords          = []string{"photo", "image", "see", "look", "view"}
)

// referenceLocation anchors scoring for content whose location is unknown.
const referenceLocation = "Windsor"

type categoryWeight struct {
	category domain.Category
	weight   float64
}

// Calendar content mix: mostly property showcases, balanced with market,
// educational, and community posts.
var calendarWeights = []categoryWeight{
	{domain.CategoryPropertyShowcase, 0.40},
	{domain.CategoryMarketUpdate, 0.20},
	{domain.CategoryEducational, 0.25},
	{domain.CategoryCommunity, 0.15},
}
