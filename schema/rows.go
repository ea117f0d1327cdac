package schema

// Row prototypes for the CSS 3.0 tables spec.md names explicitly in
// its waveform pipeline, ID-service, and static-table scenarios
// (§4.H): wfdisc, arrival, lastid, site, sitechan, sensor, instrument,
// affiliation, origin, wftag. Field widths, null literals, and printf
// format strings are taken verbatim from the CSS 3.0 *_WCS30 / *_NULL30
// macros (gbase/include/css/*.h in the original implementation) — the
// Go field order matches the C struct field order exactly so a ported
// reader recognizes the table at a glance.
//
// Every field carries a `css` struct tag consumed by columnsFromTags:
// size (column size, not counting the separating space the text
// codec inserts between columns), format (the write-side printf verb,
// minus the leading '%' and any literal space), null (the literal that
// marks the field unset), and type (the ColumnType to decode into).

// Wfdisc is the waveform descriptor row: one per contiguous segment of
// stored samples. WFDISC30_LEN = 283.
type Wfdisc struct {
	Sta      string  `css:"size=6,format=-6.6s,null=-,type=string"`
	Chan     string  `css:"size=8,format=-8.8s,null=-,type=string"`
	Time     float64 `css:"size=17,format=17.5f,null=-9999999999.999,type=time"`
	Wfid     int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Chanid   int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Jdate    int64   `css:"size=8,format=8ld,null=-1,type=juliandate"`
	Endtime  float64 `css:"size=17,format=17.5f,null=9999999999.999,type=time"`
	Nsamp    int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Samprate float32 `css:"size=11,format=11.7f,null=-1,type=float"`
	Calib    float32 `css:"size=16,format=16.6f,null=0,type=float"`
	Calper   float32 `css:"size=16,format=16.6f,null=-1,type=float"`
	Instype  string  `css:"size=6,format=-6.6s,null=-,type=string"`
	Segtype  string  `css:"size=1,format=1s,null=-,type=string"`
	Datatype string  `css:"size=2,format=-2.2s,null=-,type=string"`
	Clip     string  `css:"size=1,format=1s,null=-,type=string"`
	Dir      string  `css:"size=64,format=-64.64s,null=-,type=string"`
	Dfile    string  `css:"size=32,format=-32.32s,null=-,type=string"`
	Foff     int64   `css:"size=10,format=10ld,null=0,type=long"`
	Commid   int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Lddate   string  `css:"size=17,format=-17.17s,null=-,type=loaddate"`
}

// Arrival is a detected seismic phase onset at a station. ARRIVAL30_LEN = 223.
type Arrival struct {
	Sta     string  `css:"size=6,format=-6.6s,null=-,type=string"`
	Time    float64 `css:"size=17,format=17.5f,null=-9999999999.999,type=time"`
	Arid    int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Jdate   int64   `css:"size=8,format=8ld,null=-1,type=juliandate"`
	Stassid int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Chanid  int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Chan    string  `css:"size=8,format=-8.8s,null=-,type=string"`
	Iphase  string  `css:"size=8,format=-8.8s,null=-,type=string"`
	Stype   string  `css:"size=1,format=1s,null=-,type=string"`
	Deltim  float32 `css:"size=6,format=6.3f,null=-1,type=float"`
	Azimuth float32 `css:"size=7,format=7.2f,null=-1,type=float"`
	Delaz   float32 `css:"size=7,format=7.2f,null=-1,type=float"`
	Slow    float32 `css:"size=7,format=7.2f,null=-1,type=float"`
	Delslo  float32 `css:"size=7,format=7.2f,null=-1,type=float"`
	Ema     float32 `css:"size=7,format=7.2f,null=-1,type=float"`
	Rect    float32 `css:"size=7,format=7.3f,null=-1,type=float"`
	Amp     float32 `css:"size=10,format=10.1f,null=-1,type=float"`
	Per     float32 `css:"size=7,format=7.2f,null=-1,type=float"`
	Logat   float32 `css:"size=7,format=7.2f,null=-1,type=float"`
	Clip    string  `css:"size=1,format=1s,null=-,type=string"`
	Fm      string  `css:"size=2,format=-2.2s,null=-,type=string"`
	Snr     float32 `css:"size=10,format=10.2f,null=-1,type=float"`
	Qual    string  `css:"size=1,format=1s,null=-,type=string"`
	Auth    string  `css:"size=15,format=-15.15s,null=-,type=string"`
	Commid  int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Lddate  string  `css:"size=17,format=-17.17s,null=-,type=loaddate"`
}

// Lastid is the CSS 3.0 lastid row: one row per allocator key, holding
// the highest value already handed out. The idservice package keeps its
// counters in its own kv store, not in lastid rows. LASTID30_LEN = 42.
type Lastid struct {
	Keyname  string `css:"size=15,format=-15.15s,null=-,type=string"`
	Keyvalue int64  `css:"size=8,format=8ld,null=-1,type=long"`
	Lddate   string `css:"size=17,format=-17.17s,null=-,type=loaddate"`
}

// Site is a station location, one of the static/global tables spec.md
// §4.H names (full-file mtime-cached reads rather than per-row lookup).
// SITE30_LEN = 155.
type Site struct {
	Sta     string  `css:"size=6,format=-6.6s,null=-,type=string"`
	Ondate  int64   `css:"size=8,format=8d,null=-1,type=juliandate"`
	Offdate int64   `css:"size=8,format=8d,null=-1,type=juliandate"`
	Lat     float64 `css:"size=9,format=9.4f,null=-999,type=double"`
	Lon     float64 `css:"size=9,format=9.4f,null=-999,type=double"`
	Elev    float64 `css:"size=9,format=9.4f,null=-999,type=double"`
	Staname string  `css:"size=50,format=-50.50s,null=-,type=string"`
	Statype string  `css:"size=4,format=-4.4s,null=-,type=string"`
	Refsta  string  `css:"size=6,format=-6.6s,null=-,type=string"`
	Dnorth  float64 `css:"size=9,format=9.4f,null=0,type=double"`
	Deast   float64 `css:"size=9,format=9.4f,null=0,type=double"`
	Lddate  string  `css:"size=17,format=-17.17s,null=-,type=loaddate"`
}

// Sitechan describes one recording channel's orientation at a Site.
// SITECHAN30_LEN = 140.
type Sitechan struct {
	Sta     string  `css:"size=6,format=-6.6s,null=-,type=string"`
	Chan    string  `css:"size=8,format=-8.8s,null=-,type=string"`
	Ondate  int64   `css:"size=8,format=8d,null=-1,type=juliandate"`
	Chanid  int64   `css:"size=8,format=8d,null=-1,type=long"`
	Offdate int64   `css:"size=8,format=8d,null=-1,type=juliandate"`
	Ctype   string  `css:"size=4,format=-4.4s,null=-,type=string"`
	Edepth  float32 `css:"size=9,format=9.4f,null=-999,type=float"`
	Hang    float32 `css:"size=6,format=6.1f,null=-999,type=float"`
	Vang    float32 `css:"size=6,format=6.1f,null=-999,type=float"`
	Descrip string  `css:"size=50,format=-50.50s,null=-,type=string"`
	Lddate  string  `css:"size=17,format=-17.17s,null=-,type=loaddate"`
}

// Sensor links a sta/chan/time span to an Instrument calibration
// record. SENSOR30_LEN = 139.
type Sensor struct {
	Sta      string  `css:"size=6,format=-6.6s,null=-,type=string"`
	Chan     string  `css:"size=8,format=-8.8s,null=-,type=string"`
	Time     float64 `css:"size=17,format=17.5f,null=-9999999999.999,type=time"`
	Endtime  float64 `css:"size=17,format=17.5f,null=-9999999999.999,type=time"`
	Inid     int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Chanid   int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Jdate    int64   `css:"size=8,format=8ld,null=-1,type=juliandate"`
	Calratio float32 `css:"size=16,format=16.6f,null=-999,type=float"`
	Calper   float32 `css:"size=16,format=16.6f,null=-999,type=float"`
	Tshift   float32 `css:"size=6,format=6.2f,null=-999,type=float"`
	Instant  string  `css:"size=1,format=1s,null=-,type=string"`
	Lddate   string  `css:"size=17,format=-17.17s,null=-,type=loaddate"`
}

// Instrument holds nominal and frequency-dependent calibration for an
// instrument type. INSTRUMENT30_LEN = 239.
type Instrument struct {
	Inid     int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Insname  string  `css:"size=50,format=-50.50s,null=-,type=string"`
	Instype  string  `css:"size=6,format=-6.6s,null=-,type=string"`
	Band     string  `css:"size=1,format=1s,null=-,type=string"`
	Digital  string  `css:"size=1,format=1s,null=-,type=string"`
	Samprate float32 `css:"size=11,format=11.7f,null=-999,type=float"`
	Ncalib   float32 `css:"size=16,format=16.6f,null=-999,type=float"`
	Ncalper  float32 `css:"size=16,format=16.6f,null=-999,type=float"`
	Dir      string  `css:"size=64,format=-64.64s,null=-,type=string"`
	Dfile    string  `css:"size=32,format=-32.32s,null=-,type=string"`
	Rsptype  string  `css:"size=6,format=-6.6s,null=-,type=string"`
	Lddate   string  `css:"size=17,format=-17.17s,null=-,type=loaddate"`
}

// Affiliation clusters a Site into a network. AFFILIATION30_LEN = 33.
type Affiliation struct {
	Net    string `css:"size=8,format=-8.8s,null=-,type=string"`
	Sta    string `css:"size=6,format=-6.6s,null=-,type=string"`
	Lddate string `css:"size=17,format=-17.17s,null=-,type=loaddate"`
}

// Wftag links a foreign key (orid, arid, stassid, ...) to a Wfdisc row.
// WFTAG30_LEN = 44.
type Wftag struct {
	Tagname string `css:"size=8,format=-8.8s,null=-,type=string"`
	Tagid   int64  `css:"size=8,format=8ld,null=-1,type=long"`
	Wfid    int64  `css:"size=8,format=8ld,null=-1,type=long"`
	Lddate  string `css:"size=17,format=-17.17s,null=-,type=loaddate"`
}

// Origin is a hypocenter solution. Grounded on the ORIGIN30_LEN = 237
// layout; pulled in because wftag/wfdisc joins on orid are named
// explicitly among spec.md's query scenarios even though origin
// computation itself is out of scope.
type Origin struct {
	Lat    float64 `css:"size=9,format=9.4f,null=-999,type=double"`
	Lon    float64 `css:"size=9,format=9.4f,null=-999,type=double"`
	Depth  float64 `css:"size=9,format=9.4f,null=-999,type=double"`
	Time   float64 `css:"size=17,format=17.5f,null=-9999999999.999,type=time"`
	Orid   int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Evid   int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Jdate  int64   `css:"size=8,format=8ld,null=-1,type=juliandate"`
	Nass   int64   `css:"size=4,format=4ld,null=-1,type=int"`
	Ndef   int64   `css:"size=4,format=4ld,null=-1,type=int"`
	Ndp    int64   `css:"size=4,format=4ld,null=-1,type=int"`
	Grn    int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Srn    int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Etype  string  `css:"size=7,format=-7.7s,null=-,type=string"`
	Depdp  float64 `css:"size=9,format=9.4f,null=-999,type=double"`
	Dtype  string  `css:"size=1,format=1s,null=-,type=string"`
	Mb     float32 `css:"size=7,format=7.2f,null=-999,type=float"`
	Mbid   int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Ms     float32 `css:"size=7,format=7.2f,null=-999,type=float"`
	Msid   int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Ml     float32 `css:"size=7,format=7.2f,null=-999,type=float"`
	Mlid   int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Algorithm string `css:"size=15,format=-15.15s,null=-,type=string"`
	Auth   string  `css:"size=15,format=-15.15s,null=-,type=string"`
	Commid int64   `css:"size=8,format=8ld,null=-1,type=long"`
	Lddate string  `css:"size=17,format=-17.17s,null=-,type=loaddate"`
}
