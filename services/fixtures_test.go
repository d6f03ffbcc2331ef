package services

// Google Forms style markup used across the package tests.

const formPageOne = `<html><head><title>Placement Registration</title></head><body>
<div role="list">
  <div role="listitem">
    <div role="heading">Your Name</div>
    <input type="text" name="entry.1001">
  </div>
  <div role="listitem">
    <div role="heading">E-mail address <span>*</span></div>
    <input type="email" name="entry.1002" required>
  </div>
</div>
<div role="button" data-action="next"><span>Next</span></div>
</body></html>`

const formPageTwo = `<html><head><title>Placement Registration</title></head><body>
<div role="list">
  <div role="listitem">
    <div role="heading">Gender</div>
    <div role="radiogroup">
      <div role="radio" aria-label="Male" data-value="Male"></div>
      <div role="radio" aria-label="Female" data-value="Female"></div>
      <div role="radio" aria-label="Other" data-value="__other_option__"></div>
      <input type="text" aria-label="Other response">
    </div>
  </div>
</div>
<div role="button" data-action="submit"><span>Submit</span></div>
</body></html>`

const scannerFixture = `<html><body>
<div role="list">
  <div role="listitem">
    <div role="heading">Section A: Personal details</div>
  </div>
  <div role="listitem">
    <div role="heading">First Name *</div>
    <input type="text" name="fname" id="f1" placeholder="Given name">
  </div>
  <div role="listitem" aria-required="true">
    <div role="heading">Date of Birth</div>
    <input type="date" name="entry.2">
  </div>
  <div role="listitem">
    <div role="heading">Date of joining</div>
    <input type="text" name="entry.3" placeholder="dd-mm-yyyy">
  </div>
  <div role="listitem">
    <div role="heading">Branch</div>
    <select name="branch"><option>Select</option><option>Computer Science</option></select>
  </div>
  <div role="listitem">
    <div role="heading">Gender</div>
    <div role="radio" aria-label="Male"></div>
    <div role="radio" aria-label="Female"></div>
  </div>
  <div role="listitem">
    <div role="heading">Languages known</div>
    <div role="checkbox" aria-label="English"></div>
    <div role="checkbox" aria-label="Hindi"></div>
  </div>
  <div role="listitem">
    <div role="heading">About yourself</div>
    <textarea aria-label="About yourself"></textarea>
    <span>This is a required question</span>
  </div>
  <div role="listitem">
    <div role="heading">Upload Resume</div>
    <input type="file" name="resume">
  </div>
  <div role="listitem">
    <div role="heading">Cover note</div>
    <div contenteditable="true"></div>
  </div>
  <div role="listitem">
    <div role="heading">Year of study</div>
    <div role="listbox"><div role="option" data-value="First"></div><div role="option" data-value="Second"></div></div>
  </div>
</div>
</body></html>`

const fieldsetFixture = `<html><body>
<form>
  <fieldset>
    <legend>Roll Number</legend>
    <input name="rollno">
  </fieldset>
  <fieldset>
    <legend>Gender</legend>
    <label><input type="radio" name="gender" value="m"> Male</label>
    <label><input type="radio" name="gender" value="f"> Female</label>
  </fieldset>
  <div class="question">
    Mobile Number
    <input type="tel" name="contact">
  </div>
</form>
</body></html>`

const fallbackLabelFixture = `<html><body>
<div class="question">
  Mobile Number
  <input type="tel" name="contact">
</div>
</body></html>`

const multiPageFinal = `<html><body>
<div role="listitem"><div role="heading">Branch</div><input type="text" name="entry.9"></div>
<div role="button" data-action="submit"><span>Submit</span></div>
</body></html>`

const multiPageMiddle = `<html><body>
<div role="listitem"><div role="heading">Phone Number</div><input type="tel" name="entry.8"></div>
<div role="button" data-action="back"><span>Back</span></div>
<div role="button" data-action="next"><span>Next</span></div>
</body></html>`

const stuckPage = `<html><body>
<div role="listitem"><div role="heading">Your Name</div><input type="text" name="entry.1"></div>
<div role="button" data-action="stay"><span>Next</span></div>
</body></html>`

const noControlsPage = `<html><body>
<div role="listitem"><div role="heading">Your Name</div><input type="text" name="entry.1"></div>
</body></html>`
