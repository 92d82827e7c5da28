package interp

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"ward/internal/lexer"
	"ward/internal/object"
	"ward/internal/parser"
	"ward/internal/resolver"
	"ward/internal/runtime"
)

func execScript(t *testing.T, src string) (*runtime.Result, error) {
	t.Helper()
	tokens, err := lexer.Scan(src)
	if err != nil {
		t.Fatalf("lexing failed: %v", err)
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("parsing failed: %v", err)
	}
	in, err := New(resolver.New())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return in.Execute(program)
}

func runScript(t *testing.T, src string) *runtime.Result {
	t.Helper()
	result, err := execScript(t, src)
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	return result
}

func failScript(t *testing.T, src string) (*runtime.Result, *object.Error) {
	t.Helper()
	result, err := execScript(t, src)
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	runErr, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected *RuntimeError, got %T (%v)", err, err)
	}
	return result, runErr.Err
}

func wantVar(t *testing.T, result *runtime.Result, name string, want interface{}) {
	t.Helper()
	got, ok := result.Variables[name]
	if !ok {
		t.Fatalf("variable %q missing. have=%v", name, result.Variables)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("variable %q wrong. got=%#v, want=%#v", name, got, want)
	}
}

func TestSetAndNoteInterpolation(t *testing.T) {
	result := runScript(t, "SET x = 1\nSET y = x + 2\nNOTE \"{y}\"\n")
	wantVar(t, result, "x", int64(1))
	wantVar(t, result, "y", int64(3))
	if len(result.Notes) != 1 || result.Notes[0] != "3" {
		t.Errorf("notes wrong. got=%v", result.Notes)
	}
}

func TestUnknownInterpolationMarkerStaysVerbatim(t *testing.T) {
	result := runScript(t, "NOTE \"hello {missing}\"\n")
	if result.Notes[0] != "hello {missing}" {
		t.Errorf("marker rewritten. got=%q", result.Notes[0])
	}
}

func TestTargetScopePayloadCoercion(t *testing.T) {
	src := "SET host = \"example.com\"\n" +
		"TARGET \"https://{host}\"\n" +
		"SCOPE [\"10.0.0.0/8\", \"192.168.0.0/16\"]\n" +
		"PAYLOAD words = [\"admin\", \"root\"]\n"
	result := runScript(t, src)
	if !reflect.DeepEqual(result.Targets, []string{"https://example.com"}) {
		t.Errorf("targets wrong. got=%v", result.Targets)
	}
	if !reflect.DeepEqual(result.Scope, []string{"10.0.0.0/8", "192.168.0.0/16"}) {
		t.Errorf("scope wrong. got=%v", result.Scope)
	}
	if !reflect.DeepEqual(result.Payloads["words"], []string{"admin", "root"}) {
		t.Errorf("payloads wrong. got=%v", result.Payloads)
	}
}

func TestTaskRecordsActionsInOrder(t *testing.T) {
	src := "TASK \"recon\"\n" +
		"    \"sweeps the perimeter\"\n" +
		"    NOTE \"one\"\n" +
		"    TASK \"inner\"\n" +
		"        NOTE \"two\"\n" +
		"NOTE \"outside\"\n"
	result := runScript(t, src)
	if len(result.Tasks) != 2 {
		t.Fatalf("task count wrong. got=%d", len(result.Tasks))
	}
	outer, inner := result.Tasks[0], result.Tasks[1]
	if outer.Name != "recon" || outer.Docstring != "sweeps the perimeter" {
		t.Errorf("outer task wrong. got=%+v", outer)
	}
	if len(outer.Steps) != 1 || outer.Steps[0].Summary != "one" {
		t.Errorf("outer steps wrong. got=%+v", outer.Steps)
	}
	if inner.Name != "inner" || len(inner.Steps) != 1 {
		t.Errorf("inner task wrong. got=%+v", inner)
	}
	if len(result.StandaloneActions) != 1 || result.StandaloneActions[0].Summary != "outside" {
		t.Errorf("standalone actions wrong. got=%+v", result.StandaloneActions)
	}
}

func TestPortScanAction(t *testing.T) {
	result := runScript(t, "PORTSCAN [80, 443] TOOL \"nmap\"\n")
	action := result.StandaloneActions[0]
	if action.Kind != "portscan" {
		t.Errorf("kind wrong. got=%q", action.Kind)
	}
	if action.Summary != "Port scan ports 80, 443" {
		t.Errorf("summary wrong. got=%q", action.Summary)
	}
	if action.Details["tool"] != "nmap" {
		t.Errorf("tool wrong. got=%v", action.Details["tool"])
	}
}

func TestPortScanToolDefaultsToNil(t *testing.T) {
	result := runScript(t, "PORTSCAN [22]\n")
	details := result.StandaloneActions[0].Details
	tool, present := details["tool"]
	if !present || tool != nil {
		t.Errorf("tool should be present and nil. got=%v present=%v", tool, present)
	}
}

func TestHTTPCheckAction(t *testing.T) {
	result := runScript(t, "HTTP get \"/login\" EXPECT 200 CONTAINS \"welcome\"\n")
	action := result.StandaloneActions[0]
	if action.Kind != "http-check" || action.Summary != "HTTP GET /login" {
		t.Errorf("action wrong. got=%+v", action)
	}
	if action.Details["expect_status"] != int64(200) || action.Details["contains"] != "welcome" {
		t.Errorf("details wrong. got=%v", action.Details)
	}
}

func TestFuzzWithNamedPayload(t *testing.T) {
	src := "PAYLOAD words = [\"a\", \"b\"]\nFUZZ \"/api\" USING words\n"
	result := runScript(t, src)
	action := result.StandaloneActions[0]
	if action.Summary != "Fuzz /api using 2 payloads" {
		t.Errorf("summary wrong. got=%q", action.Summary)
	}
	if action.Details["method"] != "GET" {
		t.Errorf("default method wrong. got=%v", action.Details["method"])
	}
}

func TestFuzzWithoutPayloadsIsCustom(t *testing.T) {
	result := runScript(t, "FUZZ \"/api\" METHOD post\n")
	action := result.StandaloneActions[0]
	if action.Summary != "Fuzz /api using custom payloads" {
		t.Errorf("summary wrong. got=%q", action.Summary)
	}
	if action.Details["method"] != "POST" {
		t.Errorf("method wrong. got=%v", action.Details["method"])
	}
}

func TestFuzzUnknownPayload(t *testing.T) {
	_, errObj := failScript(t, "FUZZ \"/api\" USING nope\n")
	if errObj.Kind != object.RuntimeErrorKind || errObj.Message != "Unknown payload: nope" {
		t.Errorf("error wrong. got=%s %q", errObj.Kind, errObj.Message)
	}
}

func TestFindingRecordsBothWays(t *testing.T) {
	result := runScript(t, "FINDING high \"weak TLS on {port}\"\n")
	if len(result.Findings) != 1 {
		t.Fatalf("finding count wrong. got=%d", len(result.Findings))
	}
	finding := result.Findings[0]
	if finding.Severity != "HIGH" || finding.Message != "weak TLS on {port}" {
		t.Errorf("finding wrong. got=%+v", finding)
	}
	action := result.StandaloneActions[0]
	if action.Kind != "finding" || action.Summary != "HIGH: weak TLS on {port}" {
		t.Errorf("finding action wrong. got=%+v", action)
	}
}

func TestRunSaveAsBindsCommand(t *testing.T) {
	result := runScript(t, "RUN \"whoami\" SAVE AS who\nNOTE \"{who}\"\n")
	wantVar(t, result, "who", "whoami")
	if result.Notes[0] != "whoami" {
		t.Errorf("note wrong. got=%q", result.Notes[0])
	}
	action := result.StandaloneActions[0]
	if action.Kind != "run" || action.Summary != "Run command: whoami" {
		t.Errorf("action wrong. got=%+v", action)
	}
}

func TestReportSetsDestination(t *testing.T) {
	result := runScript(t, "REPORT \"out.json\"\n")
	if result.ReportDestination != "out.json" {
		t.Errorf("destination wrong. got=%q", result.ReportDestination)
	}
}

func TestEmbedNormalizesLanguage(t *testing.T) {
	result := runScript(t, "EMBED js payload = \"alert(1)\" USING {\"arch\": \"x86\"}\n")
	asset, ok := result.EmbeddedAssets["payload"]
	if !ok {
		t.Fatal("asset missing")
	}
	if asset.Language != "javascript" {
		t.Errorf("language not canonical. got=%q", asset.Language)
	}
	if asset.Content != "alert(1)" {
		t.Errorf("content wrong. got=%v", asset.Content)
	}
	action := result.StandaloneActions[0]
	if action.Kind != "embed" || action.Summary != "Embed payload (javascript)" {
		t.Errorf("action wrong. got=%+v", action)
	}
	if action.Details["preview"] != "alert(1)" {
		t.Errorf("preview wrong. got=%v", action.Details["preview"])
	}
}

func TestEmbedUnknownLanguageHaltsWithPartialResult(t *testing.T) {
	result, errObj := failScript(t, "NOTE \"first\"\nEMBED visualbasic x = \"hi\"\nNOTE \"never\"\n")
	if errObj.Kind != object.EmbedLanguageErrorKind {
		t.Errorf("error kind wrong. got=%s", errObj.Kind)
	}
	if !strings.Contains(errObj.Message, "visualbasic") {
		t.Errorf("error message wrong. got=%q", errObj.Message)
	}
	if len(result.Notes) != 1 || result.Notes[0] != "first" {
		t.Errorf("partial result wrong. notes=%v", result.Notes)
	}
}

func TestErrorInsideTaskRetainsTask(t *testing.T) {
	src := "TASK \"sweep\"\n    NOTE \"started\"\n    SET x = 1 / 0\n"
	result, errObj := failScript(t, src)
	if errObj.Kind != object.ZeroDivisionErrorKind {
		t.Errorf("error kind wrong. got=%s", errObj.Kind)
	}
	if len(result.Tasks) != 1 || len(result.Tasks[0].Steps) != 1 {
		t.Fatalf("open task not retained. tasks=%+v", result.Tasks)
	}
}

func TestForLoopRestoresIterator(t *testing.T) {
	src := "SET i = \"before\"\nSET last = 0\nFOR i IN [1, 2, 3]\n    last = i\nSET after = i\n"
	result := runScript(t, src)
	wantVar(t, result, "last", int64(3))
	wantVar(t, result, "after", "before")
}

func TestForLoopDeletesFreshIterator(t *testing.T) {
	src := "FOR j IN [1]\n    PASS\n" +
		"TRY\n    SET leaked = j\nEXCEPT NameError\n    SET caught = TRUE\n"
	result := runScript(t, src)
	wantVar(t, result, "caught", true)
	if _, ok := result.Variables["leaked"]; ok {
		t.Error("iterator leaked past the loop")
	}
}

func TestForBreakSkipsElse(t *testing.T) {
	src := "SET hits = 0\n" +
		"FOR x IN [1, 2, 3]\n    hits += 1\n    IF x == 2\n        BREAK\n" +
		"ELSE\n    SET finished = TRUE\n"
	result := runScript(t, src)
	wantVar(t, result, "hits", int64(2))
	if _, ok := result.Variables["finished"]; ok {
		t.Error("else ran despite break")
	}
}

func TestForElseRunsWhenExhausted(t *testing.T) {
	src := "FOR x IN [1, 2]\n    PASS\nELSE\n    SET finished = TRUE\n"
	result := runScript(t, src)
	wantVar(t, result, "finished", true)
}

func TestWhileElseRunsWhenNotBroken(t *testing.T) {
	src := "SET n = 0\nWHILE n < 3\n    n += 1\nELSE\n    SET done = TRUE\n"
	result := runScript(t, src)
	wantVar(t, result, "n", int64(3))
	wantVar(t, result, "done", true)
}

func TestWhileContinue(t *testing.T) {
	src := "SET n = 0\nSET odd = 0\n" +
		"WHILE n < 4\n    n += 1\n    IF n % 2 == 0\n        CONTINUE\n    odd += 1\n"
	result := runScript(t, src)
	wantVar(t, result, "odd", int64(2))
}

func TestBreakOutsideLoopIsReported(t *testing.T) {
	_, errObj := failScript(t, "BREAK\n")
	if errObj.Kind != object.ControlFlowErrorKind {
		t.Errorf("error kind wrong. got=%s", errObj.Kind)
	}
}

func TestFunctionDefaultsAndKeywords(t *testing.T) {
	src := "DEF greet(name, punct = \"!\")\n    RETURN name + punct\n" +
		"SET a = greet(\"hi\")\nSET b = greet(\"yo\", punct = \"?\")\n"
	result := runScript(t, src)
	wantVar(t, result, "a", "hi!")
	wantVar(t, result, "b", "yo?")
}

func TestMissingParameter(t *testing.T) {
	_, errObj := failScript(t, "DEF greet(name)\n    RETURN name\ngreet()\n")
	if errObj.Message != "Missing value for parameter 'name' in function 'greet'" {
		t.Errorf("message wrong. got=%q", errObj.Message)
	}
}

func TestTooManyArguments(t *testing.T) {
	_, errObj := failScript(t, "DEF one(a)\n    RETURN a\none(1, 2)\n")
	if errObj.Message != "Too many arguments supplied to function 'one'" {
		t.Errorf("message wrong. got=%q", errObj.Message)
	}
}

func TestGlobalStatement(t *testing.T) {
	src := "SET hits = 0\n" +
		"DEF bump()\n    GLOBAL hits\n    hits = hits + 1\n" +
		"bump()\nbump()\n"
	result := runScript(t, src)
	wantVar(t, result, "hits", int64(2))
}

func TestNonlocalClosure(t *testing.T) {
	src := "DEF counter()\n" +
		"    count = 0\n" +
		"    DEF tick()\n" +
		"        NONLOCAL count\n" +
		"        count = count + 1\n" +
		"        RETURN count\n" +
		"    RETURN tick\n" +
		"SET tick = counter()\nSET a = tick()\nSET b = tick()\n"
	result := runScript(t, src)
	wantVar(t, result, "a", int64(1))
	wantVar(t, result, "b", int64(2))
}

func TestClassInitAndBoundMethods(t *testing.T) {
	src := "CLASS Host\n" +
		"    DEF __init__(self, name)\n" +
		"        self.name = name\n" +
		"    DEF label(self)\n" +
		"        RETURN \"host:\" + self.name\n" +
		"SET h = Host(\"db1\")\nSET label = h.label()\nSET raw = h.name\n"
	result := runScript(t, src)
	wantVar(t, result, "label", "host:db1")
	wantVar(t, result, "raw", "db1")
}

func TestClassInheritance(t *testing.T) {
	src := "CLASS Base\n" +
		"    DEF kind(self)\n" +
		"        RETURN \"base\"\n" +
		"CLASS Derived(Base)\n" +
		"    PASS\n" +
		"SET d = Derived()\nSET k = d.kind()\n"
	result := runScript(t, src)
	wantVar(t, result, "k", "base")
}

func TestTryExceptElseFinally(t *testing.T) {
	src := "TRY\n    SET x = 1 / 0\n" +
		"EXCEPT ZeroDivisionError AS e\n    SET caught = e.kind\n" +
		"ELSE\n    SET caught = \"none\"\n" +
		"FINALLY\n    SET finished = TRUE\n"
	result := runScript(t, src)
	wantVar(t, result, "caught", "ZeroDivisionError")
	wantVar(t, result, "finished", true)
}

func TestTryElseRunsWithoutError(t *testing.T) {
	src := "TRY\n    SET x = 1\nEXCEPT\n    SET path = \"handler\"\nELSE\n    SET path = \"else\"\n"
	result := runScript(t, src)
	wantVar(t, result, "path", "else")
}

func TestExceptTupleAndFallthrough(t *testing.T) {
	src := "TRY\n    SET x = missing\n" +
		"EXCEPT (TypeError, NameError)\n    SET caught = \"tuple\"\n"
	result := runScript(t, src)
	wantVar(t, result, "caught", "tuple")
}

func TestUnmatchedExceptPropagates(t *testing.T) {
	src := "TRY\n    SET x = 1 / 0\nEXCEPT NameError\n    PASS\n"
	_, errObj := failScript(t, src)
	if errObj.Kind != object.ZeroDivisionErrorKind {
		t.Errorf("error kind wrong. got=%s", errObj.Kind)
	}
}

func TestRaiseAndCatchByName(t *testing.T) {
	src := "TRY\n    RAISE ValueError(\"bad input\")\n" +
		"EXCEPT ValueError AS e\n    SET msg = e.message\n"
	result := runScript(t, src)
	wantVar(t, result, "msg", "bad input")
}

func TestBareRaiseRethrows(t *testing.T) {
	src := "TRY\n" +
		"    TRY\n        SET x = 1 / 0\n" +
		"    EXCEPT ZeroDivisionError\n        RAISE\n" +
		"EXCEPT ZeroDivisionError\n    SET outer = TRUE\n"
	result := runScript(t, src)
	wantVar(t, result, "outer", true)
}

func TestAsyncCallReturnsDeferred(t *testing.T) {
	src := "ASYNC DEF probe()\n    RETURN 7\n" +
		"SET d = probe()\nSET before = d.resolved\n" +
		"SET a = AWAIT d\nSET b = AWAIT d\nSET after = d.resolved\n"
	result := runScript(t, src)
	wantVar(t, result, "before", false)
	wantVar(t, result, "a", int64(7))
	wantVar(t, result, "b", int64(7))
	wantVar(t, result, "after", true)
}

func TestAwaitRequiresDeferred(t *testing.T) {
	_, errObj := failScript(t, "SET x = AWAIT 1\n")
	if errObj.Kind != object.TypeErrorKind {
		t.Errorf("error kind wrong. got=%s", errObj.Kind)
	}
}

func TestWithManagerProtocol(t *testing.T) {
	src := "CLASS Session\n" +
		"    DEF __enter__(self)\n" +
		"        SET entered = TRUE\n" +
		"        RETURN \"handle\"\n" +
		"    DEF __exit__(self)\n" +
		"        SET exited = TRUE\n" +
		"WITH Session() AS s\n" +
		"    SET inside = s\n"
	result := runScript(t, src)
	wantVar(t, result, "entered", true)
	wantVar(t, result, "inside", "handle")
	wantVar(t, result, "exited", true)
}

func TestWithPlainValueJustBinds(t *testing.T) {
	result := runScript(t, "WITH 42 AS answer\n    SET seen = answer\n")
	wantVar(t, result, "seen", int64(42))
}

func TestWithExitRunsOnError(t *testing.T) {
	src := "CLASS Guard\n" +
		"    DEF __enter__(self)\n        RETURN self\n" +
		"    DEF __exit__(self)\n        SET cleaned = TRUE\n" +
		"TRY\n" +
		"    WITH Guard() AS g\n        SET x = 1 / 0\n" +
		"EXCEPT ZeroDivisionError\n    SET caught = TRUE\n"
	result := runScript(t, src)
	wantVar(t, result, "cleaned", true)
	wantVar(t, result, "caught", true)
}

func TestListComprehension(t *testing.T) {
	result := runScript(t, "SET doubled = [x * 2 FOR x IN [1, 2, 3] IF x > 1]\n")
	wantVar(t, result, "doubled", []interface{}{int64(4), int64(6)})
	if _, ok := result.Variables["x"]; ok {
		t.Error("comprehension variable leaked")
	}
}

func TestLambda(t *testing.T) {
	src := "SET f = LAMBDA a, b = 2: a + b\nSET x = f(1)\nSET y = f(1, 10)\n"
	result := runScript(t, src)
	wantVar(t, result, "x", int64(3))
	wantVar(t, result, "y", int64(11))
}

func TestConditionalExpression(t *testing.T) {
	result := runScript(t, "SET x = \"yes\" IF 2 > 1 ELSE \"no\"\n")
	wantVar(t, result, "x", "yes")
}

func TestDestructuringAssignment(t *testing.T) {
	result := runScript(t, "(a, b) = [1, 2]\n")
	wantVar(t, result, "a", int64(1))
	wantVar(t, result, "b", int64(2))
}

func TestDestructuringArityMismatch(t *testing.T) {
	_, errObj := failScript(t, "(a, b) = [1, 2, 3]\n")
	if errObj.Kind != object.ValueErrorKind {
		t.Errorf("error kind wrong. got=%s", errObj.Kind)
	}
}

func TestAugmentedAssignmentOnIndexAndAttribute(t *testing.T) {
	src := "SET xs = [1, 2]\nxs[0] += 10\n" +
		"SET d = {\"k\": 1}\nd[\"k\"] += 5\n" +
		"CLASS Box\n    DEF __init__(self)\n        self.n = 1\n" +
		"SET box = Box()\nbox.n *= 3\nSET n = box.n\n"
	result := runScript(t, src)
	wantVar(t, result, "xs", []interface{}{int64(11), int64(2)})
	wantVar(t, result, "d", map[string]interface{}{"k": int64(6)})
	wantVar(t, result, "n", int64(3))
}

func TestNegativeIndexing(t *testing.T) {
	result := runScript(t, "SET xs = [1, 2, 3]\nSET last = xs[-1]\nSET c = \"abc\"[-2]\n")
	wantVar(t, result, "last", int64(3))
	wantVar(t, result, "c", "b")
}

func TestIndexOutOfRange(t *testing.T) {
	_, errObj := failScript(t, "SET x = [1][5]\n")
	if errObj.Kind != object.IndexErrorKind {
		t.Errorf("error kind wrong. got=%s", errObj.Kind)
	}
}

func TestUndefinedName(t *testing.T) {
	_, errObj := failScript(t, "SET x = nowhere\n")
	if errObj.Kind != object.NameErrorKind || errObj.Message != "name 'nowhere' is not defined" {
		t.Errorf("error wrong. got=%s %q", errObj.Kind, errObj.Message)
	}
}

func TestPayloadNameResolvesAsStringList(t *testing.T) {
	src := "PAYLOAD words = [\"a\", \"b\"]\nSET n = len(words)\nSET first = words[0]\n"
	result := runScript(t, src)
	wantVar(t, result, "n", int64(2))
	wantVar(t, result, "first", "a")
}

func TestBuiltins(t *testing.T) {
	src := "SET total = sum([1, 2, 3])\n" +
		"SET r = list(range(3))\n" +
		"SET shout = upper(\"abc\")\n" +
		"SET parts = \"a,b\".split(\",\")\n" +
		"SET joined = join(\"-\", [\"x\", \"y\"])\n" +
		"SET longest = max([3, 1, 2])\n" +
		"SET ordered = sorted([3, 1, 2])\n" +
		"SET size = len({\"a\": 1, \"b\": 2})\n"
	result := runScript(t, src)
	wantVar(t, result, "total", int64(6))
	wantVar(t, result, "r", []interface{}{int64(0), int64(1), int64(2)})
	wantVar(t, result, "shout", "ABC")
	wantVar(t, result, "parts", []interface{}{"a", "b"})
	wantVar(t, result, "joined", "x-y")
	wantVar(t, result, "longest", int64(3))
	wantVar(t, result, "ordered", []interface{}{int64(1), int64(2), int64(3)})
	wantVar(t, result, "size", int64(2))
}

func TestDictMethods(t *testing.T) {
	src := "SET d = {\"a\": 1}\n" +
		"SET ks = keys(d)\n" +
		"SET missing = d.get(\"zz\", 0)\n" +
		"d.update({\"b\": 2})\n" +
		"SET size = len(d)\n"
	result := runScript(t, src)
	wantVar(t, result, "ks", []interface{}{"a"})
	wantVar(t, result, "missing", int64(0))
	wantVar(t, result, "size", int64(2))
}

func TestStringIterationInForLoop(t *testing.T) {
	// statement-level iteration treats a string as one item
	result := runScript(t, "SET n = 0\nFOR item IN \"abc\"\n    n += 1\n")
	wantVar(t, result, "n", int64(1))
}

func TestOutputWritesAndRecords(t *testing.T) {
	tokens, err := lexer.Scan("OUTPUT \"hello\"\n")
	if err != nil {
		t.Fatal(err)
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		t.Fatal(err)
	}
	in, err := New(resolver.New())
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	in.SetIO(strings.NewReader(""), &out)
	result, runErr := in.Execute(program)
	if runErr != nil {
		t.Fatal(runErr)
	}
	if out.String() != "hello\n" {
		t.Errorf("stdout wrong. got=%q", out.String())
	}
	action := result.StandaloneActions[0]
	if action.Kind != "output" || action.Summary != "Output hello" {
		t.Errorf("action wrong. got=%+v", action)
	}
}

func TestInputReadsAndBinds(t *testing.T) {
	tokens, err := lexer.Scan("INPUT \"name?\" AS who\n")
	if err != nil {
		t.Fatal(err)
	}
	program, err := parser.Parse(tokens)
	if err != nil {
		t.Fatal(err)
	}
	in, err := New(resolver.New())
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	in.SetIO(strings.NewReader("Mallory\n"), &out)
	result, runErr := in.Execute(program)
	if runErr != nil {
		t.Fatal(runErr)
	}
	wantVar(t, result, "who", "Mallory")
	action := result.StandaloneActions[0]
	if action.Kind != "input" || action.Summary != "Input who" {
		t.Errorf("action wrong. got=%+v", action)
	}
}

func TestPluginsApplyOnce(t *testing.T) {
	calls := 0
	plugin := func(i *Interpreter) error {
		calls++
		i.RegisterBuiltin("answer", &object.Integer{Value: 42})
		return nil
	}
	in, err := New(resolver.New(), plugin)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("plugin applied %d times", calls)
	}
	tokens, _ := lexer.Scan("SET x = answer\n")
	program, _ := parser.Parse(tokens)
	result, runErr := in.Execute(program)
	if runErr != nil {
		t.Fatal(runErr)
	}
	wantVar(t, result, "x", int64(42))
}

func TestPluginErrorAbortsConstruction(t *testing.T) {
	bad := func(i *Interpreter) error { return errFixture }
	if _, err := New(resolver.New(), bad); err == nil {
		t.Fatal("expected construction to fail")
	}
}

var errFixture = &fixtureError{}

type fixtureError struct{}

func (e *fixtureError) Error() string { return "plugin fixture failure" }

func TestVariablesSkipCallables(t *testing.T) {
	src := "DEF f()\n    RETURN 1\nCLASS C\n    PASS\nSET x = 1\n"
	result := runScript(t, src)
	if _, ok := result.Variables["f"]; ok {
		t.Error("function leaked into variables")
	}
	if _, ok := result.Variables["C"]; ok {
		t.Error("class leaked into variables")
	}
	wantVar(t, result, "x", int64(1))
}
