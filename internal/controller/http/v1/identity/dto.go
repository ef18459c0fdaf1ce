package identity

type SaveRequest struct {
	Modality   string `json:"modality" form:"modality"`
	Key        string `json:"key"      form:"key"`
	UID        string `json:"uid"      form:"uid"`
	Name       string `json:"name"     form:"name"`
	Department string `json:"jabatan"  form:"jabatan"`
	Plate      string `json:"plate"    form:"plate"`
}
