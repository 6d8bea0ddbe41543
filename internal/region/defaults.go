package region

// DefaultEndpoints are shared by every regional portal.
var DefaultEndpoints = Endpoints{
	Search:    "spr_ccm_cm01_100.do",
	Meal:      "sts_sci_md00_001.do",
	Calendar:  "sts_sci_sf01_001.do",
	Bootstrap: "edusys.jsp?page=sts_m40000",
}

var defaultHosts = map[ID]string{
	Seoul:     "stu.sen.go.kr",
	Busan:     "stu.pen.go.kr",
	Daegu:     "stu.dge.go.kr",
	Incheon:   "stu.ice.go.kr",
	Gwangju:   "stu.gen.go.kr",
	Daejeon:   "stu.dje.go.kr",
	Ulsan:     "stu.use.go.kr",
	Sejong:    "stu.sje.go.kr",
	Gyeonggi:  "stu.goe.go.kr",
	Gangwon:   "stu.kwe.go.kr",
	Chungbuk:  "stu.cbe.go.kr",
	Chungnam:  "stu.cne.go.kr",
	Jeonbuk:   "stu.jbe.go.kr",
	Jeonnam:   "stu.jne.go.kr",
	Gyeongbuk: "stu.gbe.kr",
	Gyeongnam: "stu.gne.go.kr",
	Jeju:      "stu.jje.go.kr",
}

// DefaultRegistry returns the registry of the public education office portals.
func DefaultRegistry() Registry {
	entries := make(map[ID]Entry, len(defaultHosts))
	for id, host := range defaultHosts {
		entries[id] = Entry{Host: host, Endpoints: DefaultEndpoints}
	}
	registry, err := NewRegistry(entries)
	if err != nil {
		// the default table is static, failing here means it was edited incorrectly
		panic(err)
	}
	return registry
}
