package model

import "strings"

// District is one of Bangladesh's administrative districts, the unit of
// prayer-time lookup.
type District struct {
	Name      string  `json:"name"`
	Division  string  `json:"division"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DistrictTimezone is the IANA zone every district's times are reported in.
const DistrictTimezone = "Asia/Dhaka"

var districts = []District{
	// Dhaka
	{"Dhaka", "Dhaka", 23.8103, 90.4125},
	{"Faridpur", "Dhaka", 23.6070, 89.8429},
	{"Gazipur", "Dhaka", 23.9999, 90.4203},
	{"Gopalganj", "Dhaka", 23.0050, 89.8266},
	{"Kishoreganj", "Dhaka", 24.4449, 90.7766},
	{"Madaripur", "Dhaka", 23.1641, 90.1897},
	{"Manikganj", "Dhaka", 23.8644, 90.0047},
	{"Munshiganj", "Dhaka", 23.5422, 90.5305},
	{"Narayanganj", "Dhaka", 23.6238, 90.5000},
	{"Narsingdi", "Dhaka", 23.9322, 90.7151},
	{"Rajbari", "Dhaka", 23.7574, 89.6445},
	{"Shariatpur", "Dhaka", 23.2423, 90.4348},
	{"Tangail", "Dhaka", 24.2513, 89.9167},
	// Chattogram
	{"Bandarban", "Chattogram", 22.1953, 92.2184},
	{"Brahmanbaria", "Chattogram", 23.9571, 91.1119},
	{"Chandpur", "Chattogram", 23.2333, 90.6713},
	{"Chattogram", "Chattogram", 22.3569, 91.7832},
	{"Cox's Bazar", "Chattogram", 21.4272, 92.0058},
	{"Cumilla", "Chattogram", 23.4607, 91.1809},
	{"Feni", "Chattogram", 23.0159, 91.3976},
	{"Khagrachari", "Chattogram", 23.1193, 91.9847},
	{"Lakshmipur", "Chattogram", 22.9425, 90.8412},
	{"Noakhali", "Chattogram", 22.8696, 91.0995},
	{"Rangamati", "Chattogram", 22.6533, 92.1750},
	// Rajshahi
	{"Bogura", "Rajshahi", 24.8465, 89.3773},
	{"Chapainawabganj", "Rajshahi", 24.5965, 88.2776},
	{"Joypurhat", "Rajshahi", 25.0968, 89.0227},
	{"Naogaon", "Rajshahi", 24.7936, 88.9318},
	{"Natore", "Rajshahi", 24.4206, 89.0003},
	{"Pabna", "Rajshahi", 24.0064, 89.2372},
	{"Rajshahi", "Rajshahi", 24.3745, 88.6042},
	{"Sirajganj", "Rajshahi", 24.4534, 89.7007},
	// Khulna
	{"Bagerhat", "Khulna", 22.6602, 89.7895},
	{"Chuadanga", "Khulna", 23.6402, 88.8418},
	{"Jashore", "Khulna", 23.1664, 89.2081},
	{"Jhenaidah", "Khulna", 23.5450, 89.1726},
	{"Khulna", "Khulna", 22.8456, 89.5403},
	{"Kushtia", "Khulna", 23.9013, 89.1205},
	{"Magura", "Khulna", 23.4873, 89.4199},
	{"Meherpur", "Khulna", 23.7622, 88.6318},
	{"Narail", "Khulna", 23.1725, 89.5127},
	{"Satkhira", "Khulna", 22.7185, 89.0705},
	// Barishal
	{"Barguna", "Barishal", 22.1591, 90.1262},
	{"Barishal", "Barishal", 22.7010, 90.3535},
	{"Bhola", "Barishal", 22.6859, 90.6482},
	{"Jhalokati", "Barishal", 22.6406, 90.1987},
	{"Patuakhali", "Barishal", 22.3596, 90.3299},
	{"Pirojpur", "Barishal", 22.5841, 89.9720},
	// Sylhet
	{"Habiganj", "Sylhet", 24.3745, 91.4155},
	{"Moulvibazar", "Sylhet", 24.4829, 91.7774},
	{"Sunamganj", "Sylhet", 25.0658, 91.3950},
	{"Sylhet", "Sylhet", 24.8949, 91.8687},
	// Rangpur
	{"Dinajpur", "Rangpur", 25.6217, 88.6354},
	{"Gaibandha", "Rangpur", 25.3288, 89.5286},
	{"Kurigram", "Rangpur", 25.8054, 89.6361},
	{"Lalmonirhat", "Rangpur", 25.9923, 89.2847},
	{"Nilphamari", "Rangpur", 25.9310, 88.8560},
	{"Panchagarh", "Rangpur", 26.3411, 88.5542},
	{"Rangpur", "Rangpur", 25.7439, 89.2752},
	{"Thakurgaon", "Rangpur", 26.0336, 88.4616},
	// Mymensingh
	{"Jamalpur", "Mymensingh", 24.9375, 89.9372},
	{"Mymensingh", "Mymensingh", 24.7471, 90.4203},
	{"Netrokona", "Mymensingh", 24.8703, 90.7279},
	{"Sherpur", "Mymensingh", 25.0204, 90.0153},
}

var districtIndex = func() map[string]District {
	idx := make(map[string]District, len(districts))
	for _, d := range districts {
		idx[strings.ToLower(d.Name)] = d
	}
	return idx
}()

// Districts returns a copy of the fixed district list.
func Districts() []District {
	out := make([]District, len(districts))
	copy(out, districts)
	return out
}

// DistrictNames returns every district name in list order.
func DistrictNames() []string {
	out := make([]string, len(districts))
	for i, d := range districts {
		out[i] = d.Name
	}
	return out
}

// LookupDistrict finds a district by name, ignoring case and surrounding space.
func LookupDistrict(name string) (District, bool) {
	d, ok := districtIndex[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}
