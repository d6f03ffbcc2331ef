package services

// KeywordEntry lists the phrase variants that identify one canonical key
type KeywordEntry struct {
	Key     string
	Phrases []string
}

// KeywordTable is ordered; earlier entries win ties
type KeywordTable []KeywordEntry

var defaultKeywords = KeywordTable{
	// Basic personal info
	{Key: "firstName", Phrases: []string{"first name", "given name", "candidate name", "your name", "forename"}},
	{Key: "middleName", Phrases: []string{"middle name", "second name"}},
	{Key: "lastName", Phrases: []string{"last name", "surname", "family name"}},
	{Key: "fullName", Phrases: []string{"full name", "complete name", "name of the student", "student name"}},
	{Key: "emailID", Phrases: []string{"email", "email address", "e-mail id", "e-mail", "personal email", "mail id"}},
	{Key: "phone", Phrases: []string{"phone number", "mobile number", "contact number", "whatsapp number", "tel number", "mobile no"}},
	{Key: "gender", Phrases: []string{"gender", "sex"}},
	{Key: "dob", Phrases: []string{"date of birth", "dob", "birth date"}},
	{Key: "rknecID", Phrases: []string{"rknec id", "college id", "student id"}},
	{Key: "alternatePhone", Phrases: []string{"alternate phone", "alternate mobile", "alternate contact number", "secondary contact"}},
	{Key: "currentAddress", Phrases: []string{"current address", "local address", "correspondence address"}},
	{Key: "permanentAddress", Phrases: []string{"permanent address", "home address", "native address"}},
	{Key: "collegeYear", Phrases: []string{"current year", "year of study", "academic year"}},

	// Academic
	{Key: "cgpa", Phrases: []string{"cgpa", "c.g.p.a.", "cumulative grade point average", "current cgpa"}},
	{Key: "activeBacklogs", Phrases: []string{"active backlogs", "pending backlogs", "current backlogs"}},
	{Key: "deadBacklogs", Phrases: []string{"dead backlogs", "cleared backlogs", "total backlogs"}},
	{Key: "yearOfGraduation", Phrases: []string{"graduation year", "year of passing", "expected graduation", "passing year"}},
	{Key: "branch", Phrases: []string{"branch", "department", "discipline", "major", "stream"}},
	{Key: "enrollmentNumber", Phrases: []string{"enrollment number", "enrolment number", "roll number", "registration number"}},

	// HSC (12th)
	{Key: "hscSchoolName", Phrases: []string{"hsc school name", "12th school name", "junior college name"}},
	{Key: "hscBoard", Phrases: []string{"hsc board", "12th board"}},
	{Key: "hscYearOfPassing", Phrases: []string{"hsc year of passing", "12th year of passing", "12th passing year"}},
	{Key: "hscPercentage", Phrases: []string{"hsc percentage", "12th percentage", "12th marks", "intermediate marks"}},

	// SSC (10th)
	{Key: "sscSchoolName", Phrases: []string{"ssc school name", "10th school name"}},
	{Key: "sscBoard", Phrases: []string{"ssc board", "10th board"}},
	{Key: "sscYearOfPassing", Phrases: []string{"ssc year of passing", "10th year of passing", "10th passing year"}},
	{Key: "sscPercentage", Phrases: []string{"ssc percentage", "10th percentage", "10th marks", "high school marks"}},

	// Documents
	{Key: "resume", Phrases: []string{"resume", "cv upload", "upload your resume", "upload cv", "resume file", "curriculum vitae"}},
}

// Machine-oriented tokens (input name/id attributes) after normalization.
var defaultAliases = map[string]string{
	"fname":            "firstName",
	"firstname":        "firstName",
	"mname":            "middleName",
	"middlename":       "middleName",
	"lname":            "lastName",
	"lastname":         "lastName",
	"fullname":         "fullName",
	"email":            "emailID",
	"emailid":          "emailID",
	"emailaddress":     "emailID",
	"rknecemail":       "emailID",
	"mobile":           "phone",
	"mobileno":         "phone",
	"phoneno":          "phone",
	"phonenumber":      "phone",
	"dateofbirth":      "dob",
	"birthdate":        "dob",
	"rknecid":          "rknecID",
	"collegeid":        "rknecID",
	"studentid":        "rknecID",
	"altphone":         "alternatePhone",
	"alternatephone":   "alternatePhone",
	"alternatemobile":  "alternatePhone",
	"gpa":              "cgpa",
	"rollno":           "enrollmentNumber",
	"rollnumber":       "enrollmentNumber",
	"enrollmentno":     "enrollmentNumber",
	"enrolmentno":      "enrollmentNumber",
	"cv":               "resume",
	"dept":             "branch",
	"passingyear":      "yearOfGraduation",
	"graduationyear":   "yearOfGraduation",
	"yop":              "yearOfGraduation",
	"currentaddress":   "currentAddress",
	"permanentaddress": "permanentAddress",
}

// Abbreviations expanded before option matching.
var defaultChoiceSynonyms = map[string]string{
	"cs":    "computer science",
	"cse":   "computer science and engineering",
	"it":    "information technology",
	"ece":   "electronics and communication engineering",
	"ee":    "electrical engineering",
	"eee":   "electrical and electronics engineering",
	"me":    "mechanical engineering",
	"mech":  "mechanical engineering",
	"ce":    "civil engineering",
	"aiml":  "artificial intelligence and machine learning",
	"ds":    "data science",
	"btech": "bachelor of technology",
	"mtech": "master of technology",
	"m":     "male",
	"f":     "female",
	"y":     "yes",
	"n":     "no",
}

// Tokens too generic to count as evidence on their own.
var defaultStopwords = []string{
	"a", "an", "the", "of", "in", "on", "at", "to", "for", "and", "or", "is", "are",
	"your", "you", "my", "please", "enter", "what", "which", "select", "choose",
	"provide", "if", "any", "do", "with", "as", "per", "no", "number", "name", "id",
	"details", "other", "specify", "current", "year",
}

// DefaultKeywordTable returns a copy of the built-in keyword table
func DefaultKeywordTable() KeywordTable {
	table := make(KeywordTable, len(defaultKeywords))
	for i, entry := range defaultKeywords {
		table[i] = KeywordEntry{Key: entry.Key, Phrases: append([]string(nil), entry.Phrases...)}
	}
	return table
}

// DefaultAliasTable returns a copy of the built-in alias table
func DefaultAliasTable() map[string]string {
	return copyStringMap(defaultAliases)
}

// DefaultChoiceSynonyms returns a copy of the built-in abbreviation table
func DefaultChoiceSynonyms() map[string]string {
	return copyStringMap(defaultChoiceSynonyms)
}

// Keys returns the canonical keys in table order
func (t KeywordTable) Keys() []string {
	keys := make([]string, 0, len(t))
	for _, entry := range t {
		keys = append(keys, entry.Key)
	}
	return keys
}

func copyStringMap(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
