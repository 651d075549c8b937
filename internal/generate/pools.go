package generate

// Word pools for synthetic identities. Non-exhaustive on purpose;
// uniqueness comes from appending the row id, not from pool size.

var firstNames = []string{
	"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael", "Linda",
	"David", "Elizabeth", "William", "Barbara", "Richard", "Susan", "Joseph", "Jessica",
	"Thomas", "Sarah", "Charles", "Karen", "Omar", "Aisha", "Yusuf", "Fatima",
	"Ahmed", "Layla", "Hassan", "Zainab", "Khalid", "Maryam", "Bilal", "Noor",
	"Daniel", "Nancy", "Matthew", "Amira", "Anthony", "Hana", "Mark", "Sandra",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
	"Rahman", "Hussain", "Khan", "Malik", "Farouk", "Haddad", "Nasser", "Qureshi",
	"Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin", "Lee",
	"Aziz", "Karim", "Siddiqui", "Mansour", "Patel", "Hall", "Young", "King",
}

var companyWords = []string{
	"Crescent", "Horizon", "Summit", "Pinnacle", "Atlas", "Vertex", "Meridian",
	"Oasis", "Falcon", "Ridge", "Harbor", "Beacon", "Compass", "Anchor", "Delta",
	"Granite", "Cedar", "Palm", "Ivory", "Amber",
}

var companySuffixes = []string{
	"Group", "Holdings", "Industries", "Trading", "Partners", "Ventures",
	"Solutions", "Enterprises", "Co", "LLC",
}

var cities = []string{
	"Dubai", "Kuala Lumpur", "Istanbul", "London", "Riyadh", "Karachi", "Jakarta",
	"Cairo", "Manama", "Doha", "Casablanca", "Amman", "Singapore", "Toronto",
	"Birmingham", "Houston", "Chicago", "Manchester", "Dhaka", "Lagos",
}

var countries = []string{
	"United Arab Emirates", "Malaysia", "Turkey", "United Kingdom", "Saudi Arabia",
	"Pakistan", "Indonesia", "Egypt", "Bahrain", "Qatar", "Morocco", "Jordan",
	"Singapore", "Canada", "United States", "Bangladesh", "Nigeria",
}

var streetNames = []string{
	"Market Street", "Harbor Road", "Union Avenue", "Palm Boulevard", "Cedar Lane",
	"Crescent Way", "Summit Drive", "Meridian Court", "Anchor Street", "Beacon Road",
}

var emailDomains = []string{
	"gmail.com", "yahoo.com", "outlook.com", "protonmail.com", "icloud.com",
	"mail.com", "fastmail.com", "zoho.com",
}

// departments maps each department to its positions. Sampling the
// position within a drawn department keeps titles sensible.
var departments = map[string][]string{
	"Sharia Board":     {"Sharia Scholar", "Compliance Officer"},
	"Finance":          {"CFO", "Financial Analyst", "Accountant", "Treasury Manager"},
	"Risk Management":  {"Risk Manager", "Credit Analyst", "Compliance Analyst"},
	"Operations":       {"Operations Manager", "Loan Officer", "Investment Officer"},
	"Customer Service": {"Customer Service Manager", "Support Specialist", "Relationship Manager"},
	"IT":               {"IT Manager", "Systems Administrator", "Data Analyst"},
	"HR":               {"HR Manager", "Recruiter"},
}

// departmentNames is the deterministic iteration order for departments.
var departmentNames = []string{
	"Sharia Board", "Finance", "Risk Management", "Operations",
	"Customer Service", "IT", "HR",
}

var industries = []string{
	"Technology", "Retail", "Manufacturing", "Healthcare", "Education",
	"Real Estate", "Food & Beverage", "Agriculture", "Construction",
	"Transportation", "Professional Services",
}

// highCapitalIndustries get larger revenue and headcount draws.
var highCapitalIndustries = map[string]bool{
	"Technology":    true,
	"Healthcare":    true,
	"Manufacturing": true,
}

var sukukTypes = []string{"Ijara", "Mudaraba", "Musharaka", "Murabaha", "Istisna"}

var underlyingAssets = []string{
	"Commercial Real Estate Portfolio",
	"Manufacturing Equipment Pool",
	"Technology Infrastructure",
	"Healthcare Facilities",
	"Transportation Fleet",
	"Renewable Energy Projects",
	"Educational Institutions",
}

var loanPurposes = []string{
	"Equipment Purchase", "Business Expansion", "Working Capital",
	"Real Estate Acquisition", "Inventory Financing", "Technology Upgrade",
	"Facility Renovation", "Trade Financing",
}

var collateralTypes = []string{
	"Real Estate Property", "Equipment and Machinery", "Inventory",
	"Accounts Receivable", "Business Assets", "Personal Guarantee",
}
